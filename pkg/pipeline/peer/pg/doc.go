// Package pg provides a PostgreSQL sink that appends encoded records to a
// table:
//
//	CREATE TABLE IF NOT EXISTS public.smtconv_messages (
//		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//		topic TEXT NOT NULL,
//		key BYTEA,
//		value BYTEA,  -- or JSONB with valueType: jsonb
//		ts TIMESTAMPTZ,
//		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	)
package pg

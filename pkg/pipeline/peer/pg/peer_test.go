package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edgeflare/smtconv/pkg/pipeline"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls []execCall
	err   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestPub(t *testing.T) {
	db := &fakeDB{}
	p, err := New(db, Config{Table: "events"}, nil)
	require.NoError(t, err)

	ts := time.UnixMilli(1700000000000)
	require.NoError(t, p.Pub(pipeline.Message{Topic: "shop.orders", Key: []byte("1"), Value: []byte("v"), Timestamp: ts}))
	require.Len(t, db.calls, 1)
	assert.Equal(t, `INSERT INTO "public"."events" (topic, key, value, ts) VALUES ($1, $2, $3, $4)`, db.calls[0].sql)
	assert.Equal(t, "shop.orders", db.calls[0].args[0])
	assert.Equal(t, []byte("1"), db.calls[0].args[1])
	assert.Equal(t, []byte("v"), db.calls[0].args[2])
	assert.Equal(t, &ts, db.calls[0].args[3])

	require.NoError(t, p.Pub(pipeline.Message{Topic: "t"}))
	assert.Nil(t, db.calls[1].args[3])

	db.err = errors.New("connection reset")
	assert.ErrorIs(t, p.Pub(pipeline.Message{Topic: "t"}), db.err)
}

func TestPubJSONB(t *testing.T) {
	db := &fakeDB{}
	p, err := New(db, Config{ValueType: "jsonb"}, nil)
	require.NoError(t, err)

	require.NoError(t, p.Pub(pipeline.Message{Topic: "t", Value: []byte(`{"id":1}`)}))
	assert.Equal(t, `{"id":1}`, db.calls[0].args[2])

	assert.Error(t, p.Pub(pipeline.Message{Topic: "t", Value: []byte("not json")}))
	assert.Len(t, db.calls, 1)
}

func TestConfig(t *testing.T) {
	_, err := New(&fakeDB{}, Config{ValueType: "text"}, nil)
	assert.Error(t, err)

	cfg := Config{Schema: "audit", Table: `odd"name`}
	require.NoError(t, cfg.setDefaults())
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Contains(t, createTableSQL(cfg), `CREATE TABLE IF NOT EXISTS "audit"."odd""name"`)
	assert.Contains(t, createTableSQL(cfg), "value bytea")
}

func TestNotConnected(t *testing.T) {
	p := &PeerPG{}
	assert.ErrorIs(t, p.Pub(pipeline.Message{Topic: "t"}), pipeline.ErrNotConnected)
	assert.NoError(t, p.Disconnect())
	assert.Error(t, p.Connect([]byte(`{"valueType":"xml"}`)))
}

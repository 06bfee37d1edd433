package connect

import (
	"maps"
	"time"
)

// Record is the unit passed through transformations before serialization.
// Transformations treat it as a value: they return a new record (or the same
// pointer when nothing changed) and never modify their input in place.
type Record struct {
	Topic     string    `json:"topic"`
	Schema    *Schema   `json:"schema,omitempty"`
	Value     any       `json:"value"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NewRecord returns a record stamped with the current time.
func NewRecord(topic string, schema *Schema, value any) *Record {
	return &Record{
		Topic:     topic,
		Schema:    schema,
		Value:     value,
		Timestamp: time.Now(),
	}
}

// Copy returns a shallow copy of r. Map values are cloned one level deep so
// that field-level edits on the copy do not leak into r.
func (r *Record) Copy() *Record {
	out := *r
	if m, ok := r.Value.(map[string]any); ok {
		out.Value = maps.Clone(m)
	}
	return &out
}

// Fields returns the value as a map when it is one.
func (r *Record) Fields() (map[string]any, bool) {
	m, ok := r.Value.(map[string]any)
	return m, ok
}

// RecordBuilder helps construct records
type RecordBuilder struct {
	record Record
}

func NewRecordBuilder(topic string) *RecordBuilder {
	return &RecordBuilder{record: Record{Topic: topic}}
}

func (b *RecordBuilder) WithSchema(schema *Schema) *RecordBuilder {
	b.record.Schema = schema
	return b
}

func (b *RecordBuilder) WithValue(value any) *RecordBuilder {
	b.record.Value = value
	return b
}

func (b *RecordBuilder) WithTimestamp(ts time.Time) *RecordBuilder {
	b.record.Timestamp = ts
	return b
}

func (b *RecordBuilder) Build() *Record {
	r := b.record
	return &r
}

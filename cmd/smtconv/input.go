package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/pipeline"
)

// inputRecord is one JSON document of command input.
type inputRecord struct {
	Topic       string          `json:"topic"`
	Key         any             `json:"key"`
	KeySchema   *connect.Schema `json:"keySchema,omitempty"`
	Value       any             `json:"value"`
	ValueSchema *connect.Schema `json:"valueSchema,omitempty"`
	// Timestamp in Unix milliseconds
	Timestamp int64 `json:"timestamp,omitempty"`
}

func (r inputRecord) input() pipeline.Input {
	in := pipeline.Input{
		Topic:       r.Topic,
		Key:         r.Key,
		KeySchema:   r.KeySchema,
		Value:       r.Value,
		ValueSchema: r.ValueSchema,
	}
	if r.Timestamp != 0 {
		in.Timestamp = time.UnixMilli(r.Timestamp)
	}
	return in
}

// openInput returns the file at path, or stdin for "" and "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}

// readInputs decodes a stream of JSON records, typically one per line, and
// calls fn for each. It stops at the first error.
func readInputs(r io.Reader, fn func(pipeline.Input) error) error {
	dec := json.NewDecoder(r)
	for n := 1; ; n++ {
		var rec inputRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("record %d: %w", n, err)
		}
		if rec.Topic == "" {
			return fmt.Errorf("record %d: topic is required", n)
		}
		if err := fn(rec.input()); err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
	}
}

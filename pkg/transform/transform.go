package transform

import (
	"fmt"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/mitchellh/mapstructure"
)

// Config is implemented by every transformation's options struct.
type Config interface {
	// Validate checks constraints spanning several options
	Validate() error
	// Type returns the transformation type
	Type() string
}

// decode parses props against def and decodes the values into cfg.
func decode(def *configdef.ConfigDef, props configdef.Props, cfg Config) error {
	values, err := def.Parse(props)
	if err != nil {
		return err
	}
	if err := mapstructure.Decode(map[string]any(values), cfg); err != nil {
		return fmt.Errorf("error decoding %s config: %w", cfg.Type(), err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid %s configuration: %w", cfg.Type(), err)
	}
	return nil
}

// fieldsOf returns the record value as a map. Nil values (tombstones) are
// reported with ok false and no error.
func fieldsOf(typ string, rec *connect.Record) (map[string]any, bool, error) {
	if rec.Value == nil {
		return nil, false, nil
	}
	m, ok := rec.Fields()
	if !ok {
		return nil, false, fmt.Errorf("%s requires a map value, got %T", typ, rec.Value)
	}
	return m, true, nil
}

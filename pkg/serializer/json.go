package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
)

// JSONDef declares the options of the json serializer.
var JSONDef = configdef.New().
	MustDefine(configdef.Key{
		Name:       "schemas.enable",
		Type:       configdef.TypeBool,
		Default:    true,
		HasDefault: true,
		Importance: configdef.ImportanceHigh,
		Doc:        "Wrap values in a {\"schema\", \"payload\"} envelope",
	})

func init() {
	converter.RegisterSerializer("json", "JSON, optionally wrapped in a schema envelope",
		func() converter.Serializer { return &JSON{} })
}

// envelope is the Kafka Connect JSON converter layout.
type envelope struct {
	Schema  *connect.Schema `json:"schema"`
	Payload any             `json:"payload"`
}

// JSON encodes values with encoding/json.
type JSON struct {
	schemasEnabled bool
}

func (j *JSON) Configure(props configdef.Props, isKey bool) error {
	values, err := JSONDef.Parse(props)
	if err != nil {
		return err
	}
	j.schemasEnabled = values.Bool("schemas.enable")
	return nil
}

func (j *JSON) Encode(topic string, schema *connect.Schema, value any) ([]byte, error) {
	if value == nil && (schema == nil || !j.schemasEnabled) {
		return nil, nil
	}

	var out any = value
	if j.schemasEnabled {
		out = envelope{Schema: schema, Payload: value}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value for topic %s: %w", topic, err)
	}
	return data, nil
}

package transform

import (
	"fmt"
	"slices"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
)

// ExtractDef declares the options of the extract transformation.
var ExtractDef = configdef.New().
	MustDefine(configdef.Key{
		Name:       "fields",
		Type:       configdef.TypeList,
		Optional:   true,
		Validator:  configdef.NonEmpty(),
		Importance: configdef.ImportanceHigh,
		Doc:        "Keep only these fields of a map value",
	}).
	MustDefine(configdef.Key{
		Name:       "field",
		Type:       configdef.TypeString,
		Optional:   true,
		Validator:  configdef.NonEmpty(),
		Importance: configdef.ImportanceHigh,
		Doc:        "Replace the value with the value of this field",
	})

func init() {
	converter.RegisterTransformation("extract",
		"Keeps selected fields of a map value, or replaces the value with a single field",
		ExtractDef, func() converter.Transformation { return &Extract{} })
}

// ExtractConfig holds the configuration for the extract transformation
type ExtractConfig struct {
	Fields []string `mapstructure:"fields"`
	Field  string   `mapstructure:"field"`
}

// Validate validates the ExtractConfig
func (c *ExtractConfig) Validate() error {
	if len(c.Fields) == 0 && c.Field == "" {
		return fmt.Errorf("one of fields or field is required")
	}
	if len(c.Fields) > 0 && c.Field != "" {
		return fmt.Errorf("fields and field are mutually exclusive")
	}
	return nil
}

// Type returns the type of the transformation
func (c *ExtractConfig) Type() string {
	return "extract"
}

// Extract keeps the configured fields of a map value, or unwraps one field.
type Extract struct {
	config ExtractConfig
}

func (e *Extract) Configure(props configdef.Props) error {
	return decode(ExtractDef, props, &e.config)
}

func (e *Extract) Apply(rec *connect.Record) (*connect.Record, error) {
	fields, ok, err := fieldsOf(e.config.Type(), rec)
	if !ok {
		return rec, err
	}

	out := rec.Copy()
	if e.config.Field != "" {
		out.Value = fields[e.config.Field]
		out.Schema = nil
		if f, found := rec.Schema.Field(e.config.Field); found {
			out.Schema = f.Schema()
		}
		return out, nil
	}

	kept := make(map[string]any, len(e.config.Fields))
	for _, field := range e.config.Fields {
		if value, exists := fields[field]; exists {
			kept[field] = value
		}
	}
	out.Value = kept
	out.Schema = rec.Schema.WithoutFields(func(f connect.Field) bool {
		return !slices.Contains(e.config.Fields, f.Field)
	})
	return out, nil
}

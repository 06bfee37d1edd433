package transform

import (
	"strings"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
)

// CaseDef declares the options of the case transformation.
var CaseDef = configdef.New().
	MustDefine(configdef.Key{
		Name:       "mode",
		Type:       configdef.TypeString,
		Default:    "upper",
		HasDefault: true,
		Validator:  configdef.OneOf("upper", "lower"),
		Importance: configdef.ImportanceHigh,
		Doc:        "upper or lower",
	}).
	MustDefine(configdef.Key{
		Name:       "fields",
		Type:       configdef.TypeList,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "String fields of a map value to convert. Empty converts a string value itself",
	})

func init() {
	converter.RegisterTransformation("case",
		"Converts string values or fields to upper or lower case",
		CaseDef, func() converter.Transformation { return &Case{} })
}

type CaseConfig struct {
	Mode   string   `mapstructure:"mode"`
	Fields []string `mapstructure:"fields"`
}

func (c *CaseConfig) Validate() error { return nil }

func (c *CaseConfig) Type() string { return "case" }

// Case changes the case of strings. Values of other types pass through.
type Case struct {
	config  CaseConfig
	convert func(string) string
}

func (c *Case) Configure(props configdef.Props) error {
	if err := decode(CaseDef, props, &c.config); err != nil {
		return err
	}
	c.convert = strings.ToUpper
	if strings.EqualFold(c.config.Mode, "lower") {
		c.convert = strings.ToLower
	}
	return nil
}

func (c *Case) Apply(rec *connect.Record) (*connect.Record, error) {
	if len(c.config.Fields) == 0 {
		s, ok := rec.Value.(string)
		if !ok {
			return rec, nil
		}
		out := rec.Copy()
		out.Value = c.convert(s)
		return out, nil
	}

	if _, ok := rec.Fields(); !ok {
		return rec, nil
	}
	out := rec.Copy()
	fields := out.Value.(map[string]any)
	for _, name := range c.config.Fields {
		if s, ok := fields[name].(string); ok {
			fields[name] = c.convert(s)
		}
	}
	return out, nil
}

package transform

import (
	"fmt"
	"slices"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
	"github.com/google/uuid"
)

// InsertDef declares the options of the insert transformation.
var InsertDef = configdef.New().
	MustDefine(configdef.Key{
		Name:       "static.field",
		Type:       configdef.TypeString,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "Field receiving static.value",
	}).
	MustDefine(configdef.Key{
		Name:       "static.value",
		Type:       configdef.TypeString,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "Static string inserted into static.field",
	}).
	MustDefine(configdef.Key{
		Name:       "topic.field",
		Type:       configdef.TypeString,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "Field receiving the record topic",
	}).
	MustDefine(configdef.Key{
		Name:       "timestamp.field",
		Type:       configdef.TypeString,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "Field receiving the record timestamp in Unix milliseconds",
	}).
	MustDefine(configdef.Key{
		Name:       "uuid.field",
		Type:       configdef.TypeString,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceLow,
		Doc:        "Field receiving a random UUID",
	})

func init() {
	converter.RegisterTransformation("insert",
		"Inserts static, topic, timestamp or UUID fields into map values",
		InsertDef, func() converter.Transformation { return &Insert{} })
}

type InsertConfig struct {
	StaticField    string `mapstructure:"static.field"`
	StaticValue    string `mapstructure:"static.value"`
	TopicField     string `mapstructure:"topic.field"`
	TimestampField string `mapstructure:"timestamp.field"`
	UUIDField      string `mapstructure:"uuid.field"`
}

func (c *InsertConfig) Validate() error {
	if c.StaticField == "" && c.TopicField == "" && c.TimestampField == "" && c.UUIDField == "" {
		return fmt.Errorf("at least one field to insert is required")
	}
	if c.StaticField == "" && c.StaticValue != "" {
		return fmt.Errorf("static.value requires static.field")
	}
	return nil
}

func (c *InsertConfig) Type() string {
	return "insert"
}

// Insert adds metadata fields to map values. Nil values pass through.
type Insert struct {
	config InsertConfig
}

func (in *Insert) Configure(props configdef.Props) error {
	return decode(InsertDef, props, &in.config)
}

func (in *Insert) Apply(rec *connect.Record) (*connect.Record, error) {
	_, ok, err := fieldsOf(in.config.Type(), rec)
	if !ok {
		return rec, err
	}

	out := rec.Copy()
	fields := out.Value.(map[string]any)
	var added []connect.Field

	if f := in.config.StaticField; f != "" {
		fields[f] = in.config.StaticValue
		added = append(added, connect.Field{Field: f, Type: connect.TypeString, Optional: true})
	}
	if f := in.config.TopicField; f != "" {
		fields[f] = rec.Topic
		added = append(added, connect.Field{Field: f, Type: connect.TypeString, Optional: true})
	}
	if f := in.config.TimestampField; f != "" {
		fields[f] = rec.Timestamp.UnixMilli()
		added = append(added, connect.Field{Field: f, Type: connect.TypeInt64, Optional: true, Name: "org.apache.kafka.connect.data.Timestamp"})
	}
	if f := in.config.UUIDField; f != "" {
		fields[f] = uuid.NewString()
		added = append(added, connect.Field{Field: f, Type: connect.TypeString, Optional: true})
	}

	if rec.Schema != nil && rec.Schema.Type == connect.TypeStruct {
		out.Schema = rec.Schema.WithoutFields(func(existing connect.Field) bool {
			return slices.ContainsFunc(added, func(f connect.Field) bool { return f.Field == existing.Field })
		})
		out.Schema.Fields = append(out.Schema.Fields, added...)
	}
	return out, nil
}

package connect

// Type is the logical type of a schema
type Type string

const (
	TypeInt8    Type = "int8"
	TypeInt16   Type = "int16"
	TypeInt32   Type = "int32"
	TypeInt64   Type = "int64"
	TypeFloat32 Type = "float32"
	TypeFloat64 Type = "float64"
	TypeBoolean Type = "boolean"
	TypeString  Type = "string"
	TypeBytes   Type = "bytes"
	TypeArray   Type = "array"
	TypeMap     Type = "map"
	TypeStruct  Type = "struct"
)

// Field represents a struct field definition
type Field struct {
	Field    string  `json:"field"`
	Type     Type    `json:"type"`
	Optional bool    `json:"optional"`
	Name     string  `json:"name,omitempty"`
	Fields   []Field `json:"fields,omitempty"`
}

// Schema describes the shape of a record key or value, in the same layout
// as the Kafka Connect JSON envelope.
type Schema struct {
	Type     Type    `json:"type"`
	Optional bool    `json:"optional"`
	Name     string  `json:"name,omitempty"`
	Version  int     `json:"version,omitempty"`
	Doc      string  `json:"doc,omitempty"`
	Fields   []Field `json:"fields,omitempty"`
	Items    *Schema `json:"items,omitempty"`
	Keys     *Schema `json:"keys,omitempty"`
	Values   *Schema `json:"values,omitempty"`
}

// Predefined primitive schemas. Treat them as read-only.
var (
	StringSchema          = &Schema{Type: TypeString}
	OptionalStringSchema  = &Schema{Type: TypeString, Optional: true}
	BytesSchema           = &Schema{Type: TypeBytes}
	OptionalBytesSchema   = &Schema{Type: TypeBytes, Optional: true}
	Int64Schema           = &Schema{Type: TypeInt64}
	OptionalInt64Schema   = &Schema{Type: TypeInt64, Optional: true}
	Float64Schema         = &Schema{Type: TypeFloat64}
	BooleanSchema         = &Schema{Type: TypeBoolean}
	OptionalBooleanSchema = &Schema{Type: TypeBoolean, Optional: true}
)

// Field returns the named field and whether it exists.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, f := range s.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return Field{}, false
}

// Schema returns the field's type as a standalone schema.
func (f Field) Schema() *Schema {
	return &Schema{
		Type:     f.Type,
		Optional: f.Optional,
		Name:     f.Name,
		Fields:   copyFields(f.Fields),
	}
}

// WithoutFields returns a copy of s without the struct fields for which drop
// returns true.
func (s *Schema) WithoutFields(drop func(Field) bool) *Schema {
	if s == nil {
		return nil
	}
	out := s.Copy()
	kept := out.Fields[:0]
	for _, f := range out.Fields {
		if !drop(f) {
			kept = append(kept, f)
		}
	}
	out.Fields = kept
	return out
}

// Copy returns a deep copy of s. A nil schema copies to nil.
func (s *Schema) Copy() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Fields = copyFields(s.Fields)
	out.Items = s.Items.Copy()
	out.Keys = s.Keys.Copy()
	out.Values = s.Values.Copy()
	return &out
}

func copyFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		out[i].Fields = copyFields(f.Fields)
	}
	return out
}

// SchemaBuilder helps construct struct schemas
type SchemaBuilder struct {
	schema Schema
}

func NewSchemaBuilder(name string) *SchemaBuilder {
	return &SchemaBuilder{
		schema: Schema{
			Type:     TypeStruct,
			Optional: false,
			Name:     name,
		},
	}
}

func (b *SchemaBuilder) WithField(name string, t Type, optional bool) *SchemaBuilder {
	b.schema.Fields = append(b.schema.Fields, Field{Field: name, Type: t, Optional: optional})
	return b
}

func (b *SchemaBuilder) WithVersion(version int) *SchemaBuilder {
	b.schema.Version = version
	return b
}

func (b *SchemaBuilder) WithDoc(doc string) *SchemaBuilder {
	b.schema.Doc = doc
	return b
}

func (b *SchemaBuilder) Optional() *SchemaBuilder {
	b.schema.Optional = true
	return b
}

func (b *SchemaBuilder) Build() *Schema {
	s := b.schema
	return s.Copy()
}

package serializer

import (
	"encoding/json"

	"github.com/edgeflare/smtconv/pkg/connect"
)

// jsonSchema renders s as a JSON Schema document for the registry.
// A nil schema allows any value.
func jsonSchema(s *connect.Schema) (string, error) {
	doc := schemaNode(s)
	doc["$schema"] = "http://json-schema.org/draft-07/schema#"
	if s != nil && s.Name != "" {
		doc["title"] = s.Name
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func schemaNode(s *connect.Schema) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	node := typeNode(s.Type, s.Optional)
	if s.Doc != "" {
		node["description"] = s.Doc
	}
	switch s.Type {
	case connect.TypeStruct:
		addProperties(node, s.Fields)
	case connect.TypeArray:
		node["items"] = schemaNode(s.Items)
	case connect.TypeMap:
		node["additionalProperties"] = schemaNode(s.Values)
	}
	return node
}

func addProperties(node map[string]any, fields []connect.Field) {
	props := make(map[string]any, len(fields))
	var required []string
	for _, f := range fields {
		child := typeNode(f.Type, f.Optional)
		if f.Type == connect.TypeStruct {
			addProperties(child, f.Fields)
		}
		if f.Name != "" {
			child["connect.name"] = f.Name
		}
		props[f.Field] = child
		if !f.Optional {
			required = append(required, f.Field)
		}
	}
	node["properties"] = props
	if len(required) > 0 {
		node["required"] = required
	}
}

func typeNode(t connect.Type, optional bool) map[string]any {
	var jsonType string
	switch t {
	case connect.TypeInt8, connect.TypeInt16, connect.TypeInt32, connect.TypeInt64:
		jsonType = "integer"
	case connect.TypeFloat32, connect.TypeFloat64:
		jsonType = "number"
	case connect.TypeBoolean:
		jsonType = "boolean"
	case connect.TypeString, connect.TypeBytes:
		jsonType = "string"
	case connect.TypeArray:
		jsonType = "array"
	default:
		jsonType = "object"
	}
	node := map[string]any{"connect.type": string(t)}
	if optional {
		node["type"] = []string{jsonType, "null"}
	} else {
		node["type"] = jsonType
	}
	return node
}

package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtobufDef declares the options of the protobuf serializer.
var ProtobufDef = configdef.New().
	MustDefine(configdef.Key{
		Name:       "format",
		Type:       configdef.TypeString,
		Default:    "binary",
		HasDefault: true,
		Validator:  configdef.OneOf("binary", "json"),
		Importance: configdef.ImportanceMedium,
		Doc:        "binary for the protobuf wire format, json for protojson",
	})

func init() {
	converter.RegisterSerializer("protobuf", "google.protobuf.Value messages in binary or protojson form",
		func() converter.Serializer { return &Protobuf{} })
}

// Protobuf encodes values as google.protobuf.Value messages. Messages
// implementing proto.Message are encoded as-is.
type Protobuf struct {
	json bool
}

func (p *Protobuf) Configure(props configdef.Props, isKey bool) error {
	values, err := ProtobufDef.Parse(props)
	if err != nil {
		return err
	}
	p.json = values.String("format") == "json"
	return nil
}

func (p *Protobuf) Encode(topic string, schema *connect.Schema, value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}

	msg, ok := value.(proto.Message)
	if !ok {
		v, err := toStructValue(value)
		if err != nil {
			return nil, fmt.Errorf("protobuf serializer: topic %s: %w", topic, err)
		}
		msg = v
	}

	if p.json {
		return protojson.Marshal(msg)
	}
	return proto.Marshal(msg)
}

// toStructValue converts value to a structpb.Value, going through JSON for
// types structpb does not know (typed slices and maps, structs).
func toStructValue(value any) (*structpb.Value, error) {
	if v, err := structpb.NewValue(value); err == nil {
		return v, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return structpb.NewValue(generic)
}

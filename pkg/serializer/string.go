package serializer

import (
	"fmt"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
)

var stringDef = configdef.New()

func init() {
	converter.RegisterSerializer("string", "Renders values with fmt; nil values produce no output",
		func() converter.Serializer { return &String{} })
	converter.RegisterSerializer("bytes", "Passes []byte and string values through",
		func() converter.Serializer { return &Bytes{} })
}

// String renders any value with fmt.
type String struct{}

func (s *String) Configure(props configdef.Props, isKey bool) error {
	_, err := stringDef.Parse(props)
	return err
}

func (s *String) Encode(topic string, schema *connect.Schema, value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return []byte(fmt.Sprint(v)), nil
	}
}

// Bytes accepts only []byte and string values.
type Bytes struct{}

func (b *Bytes) Configure(props configdef.Props, isKey bool) error {
	_, err := stringDef.Parse(props)
	return err
}

func (b *Bytes) Encode(topic string, schema *connect.Schema, value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("bytes serializer: unsupported value type %T for topic %s", value, topic)
	}
}

package converter

import (
	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/schemaregistry"
)

// Transformation is a single record transformation step (like a Kafka
// Connect SMT). Instances are configured once and then applied concurrently.
type Transformation interface {
	// Configure receives the options of its alias with the
	// "transforms.<alias>." prefix stripped.
	Configure(props configdef.Props) error
	// Apply returns the transformed record, or nil to drop it.
	// Implementations must not modify rec in place.
	Apply(rec *connect.Record) (*connect.Record, error)
}

// Serializer turns a record value into bytes.
type Serializer interface {
	// Configure receives the options with the "converter." prefix stripped.
	Configure(props configdef.Props, isKey bool) error
	// Encode returns the serialized value, or nil for no output.
	Encode(topic string, schema *connect.Schema, value any) ([]byte, error)
}

// SchemaRegistryAware is implemented by plugins that accept the host's
// shared schema registry client. It is called before Configure, and only
// when the host supplied a registry.
type SchemaRegistryAware interface {
	SetSchemaRegistry(registry schemaregistry.Registry)
}

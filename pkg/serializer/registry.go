package serializer

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
	"github.com/edgeflare/smtconv/pkg/schemaregistry"
)

// RegistryDef declares the options of the registry serializer.
var RegistryDef = configdef.New().
	MustDefine(configdef.Key{
		Name:         "schema.registry.url",
		Type:         configdef.TypeString,
		Default:      "",
		HasDefault:   true,
		Importance:   configdef.ImportanceHigh,
		Doc:          "Schema registry endpoint; not needed when the host shares a registry client",
		Group:        "registry",
		OrderInGroup: 0,
	}).
	MustDefine(configdef.Key{
		Name:         "schema.registry.username",
		Type:         configdef.TypeString,
		Default:      "",
		HasDefault:   true,
		Importance:   configdef.ImportanceMedium,
		Group:        "registry",
		OrderInGroup: 1,
	}).
	MustDefine(configdef.Key{
		Name:         "schema.registry.password",
		Type:         configdef.TypePassword,
		Optional:     true,
		Importance:   configdef.ImportanceMedium,
		Group:        "registry",
		OrderInGroup: 2,
	}).
	MustDefine(configdef.Key{
		Name:         "schema.registry.timeout",
		Type:         configdef.TypeDuration,
		Default:      "10s",
		HasDefault:   true,
		Importance:   configdef.ImportanceLow,
		Group:        "registry",
		OrderInGroup: 3,
	}).
	MustDefine(configdef.Key{
		Name:       "auto.register.schemas",
		Type:       configdef.TypeBool,
		Default:    true,
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "Register the derived JSON Schema under the subject",
	}).
	MustDefine(configdef.Key{
		Name:       "use.latest.version",
		Type:       configdef.TypeBool,
		Default:    false,
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "Use the latest registered schema id of the subject instead of registering",
	}).
	MustDefine(configdef.Key{
		Name:       "subject.name",
		Type:       configdef.TypeString,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceLow,
		Doc:        "Fixed subject; defaults to <topic>-key or <topic>-value",
	})

func init() {
	converter.RegisterSerializer("registry", "JSON payloads in the Confluent wire format with schema ids from a schema registry",
		func() converter.Serializer { return &Registry{} })
}

// Registry writes the Confluent wire format: a zero magic byte, the 4-byte
// big-endian schema id and the JSON payload.
type Registry struct {
	registry         schemaregistry.Registry
	isKey            bool
	subject          string
	autoRegister     bool
	useLatestVersion bool

	// subject + schema -> id
	ids sync.Map
}

// SetSchemaRegistry shares the host's registry client.
func (r *Registry) SetSchemaRegistry(registry schemaregistry.Registry) {
	r.registry = registry
}

func (r *Registry) Configure(props configdef.Props, isKey bool) error {
	values, err := RegistryDef.Parse(props)
	if err != nil {
		return err
	}
	r.isKey = isKey
	r.subject = values.String("subject.name")
	r.autoRegister = values.Bool("auto.register.schemas")
	r.useLatestVersion = values.Bool("use.latest.version")

	if r.registry != nil {
		return nil
	}
	client, err := schemaregistry.NewClient(schemaregistry.Config{
		URL:      values.String("schema.registry.url"),
		Username: values.String("schema.registry.username"),
		Password: values.Password("schema.registry.password").Value(),
		Timeout:  values.Duration("schema.registry.timeout"),
	})
	if err != nil {
		return fmt.Errorf("registry serializer: %w", err)
	}
	r.registry = client
	return nil
}

// Subject returns the registry subject for topic.
func (r *Registry) Subject(topic string) string {
	if r.subject != "" {
		return r.subject
	}
	if r.isKey {
		return topic + "-key"
	}
	return topic + "-value"
}

func (r *Registry) Encode(topic string, schema *connect.Schema, value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value for topic %s: %w", topic, err)
	}

	id, err := r.schemaID(r.Subject(topic), schema)
	if err != nil {
		return nil, err
	}

	return append(schemaregistry.EncodeSchemaID(id), payload...), nil
}

func (r *Registry) schemaID(subject string, schema *connect.Schema) (int, error) {
	if r.useLatestVersion || !r.autoRegister {
		meta, err := r.registry.GetLatestSchema(subject)
		if err != nil {
			return 0, fmt.Errorf("failed to get latest schema for subject %s: %w", subject, err)
		}
		return meta.ID, nil
	}

	doc, err := jsonSchema(schema)
	if err != nil {
		return 0, fmt.Errorf("failed to derive JSON schema for subject %s: %w", subject, err)
	}
	cacheKey := subject + "\x00" + doc
	if id, ok := r.ids.Load(cacheKey); ok {
		return id.(int), nil
	}

	id, err := r.registry.RegisterSchema(subject, doc, "JSON")
	if err != nil {
		return 0, fmt.Errorf("failed to register schema for subject %s: %w", subject, err)
	}
	r.ids.Store(cacheKey, id)
	return id, nil
}

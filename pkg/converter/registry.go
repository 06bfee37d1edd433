package converter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/edgeflare/smtconv/pkg/configdef"
)

// Kind tells which capability a plugin provides.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransformation
	KindSerializer
)

func (k Kind) String() string {
	switch k {
	case KindTransformation:
		return "transformation"
	case KindSerializer:
		return "serializer"
	default:
		return "unknown"
	}
}

// Plugin is a registered, name-addressable plugin type. Schema is the
// option schema of a transformation; serializers validate their own slice
// and may leave it nil.
type Plugin struct {
	Name   string
	Kind   Kind
	Schema *configdef.ConfigDef
	Doc    string
	New    func() any
}

// Registry maps type identifiers to plugin factories.
type Registry struct {
	plugins sync.Map // map[string]Plugin
}

// NewRegistry creates a new, empty plugin registry
func NewRegistry() *Registry {
	return &Registry{
		plugins: sync.Map{},
	}
}

// Register adds a plugin. Names are unique across kinds.
func (r *Registry) Register(p Plugin) error {
	if p.Name == "" {
		return fmt.Errorf("plugin name must not be empty")
	}
	if p.New == nil {
		return fmt.Errorf("plugin %s: nil factory", p.Name)
	}
	if _, loaded := r.plugins.LoadOrStore(p.Name, p); loaded {
		return fmt.Errorf("plugin %s is already registered", p.Name)
	}
	return nil
}

// RegisterTransformation adds a transformation type with its option schema.
func (r *Registry) RegisterTransformation(name, doc string, schema *configdef.ConfigDef, factory func() Transformation) error {
	if factory == nil {
		return fmt.Errorf("plugin %s: nil factory", name)
	}
	return r.Register(Plugin{
		Name:   name,
		Kind:   KindTransformation,
		Schema: schema,
		Doc:    doc,
		New:    func() any { return factory() },
	})
}

// RegisterSerializer adds a delegate serializer type.
func (r *Registry) RegisterSerializer(name, doc string, factory func() Serializer) error {
	if factory == nil {
		return fmt.Errorf("plugin %s: nil factory", name)
	}
	return r.Register(Plugin{
		Name: name,
		Kind: KindSerializer,
		Doc:  doc,
		New:  func() any { return factory() },
	})
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (Plugin, error) {
	if value, ok := r.plugins.Load(name); ok {
		return value.(Plugin), nil
	}
	return Plugin{}, fmt.Errorf("%q is not registered: %w", name, ErrInvalidPluginType)
}

// Plugins returns all registered plugins sorted by kind then name.
func (r *Registry) Plugins() []Plugin {
	var out []Plugin
	r.plugins.Range(func(_, value any) bool {
		out = append(out, value.(Plugin))
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry built-in plugins add themselves to.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// RegisterTransformation adds a transformation to the default registry.
// It panics on duplicate names, as it is meant to be called from init.
func RegisterTransformation(name, doc string, schema *configdef.ConfigDef, factory func() Transformation) {
	if err := defaultRegistry.RegisterTransformation(name, doc, schema, factory); err != nil {
		panic(err)
	}
}

// RegisterSerializer adds a serializer to the default registry.
// It panics on duplicate names, as it is meant to be called from init.
func RegisterSerializer(name, doc string, factory func() Serializer) {
	if err := defaultRegistry.RegisterSerializer(name, doc, factory); err != nil {
		panic(err)
	}
}

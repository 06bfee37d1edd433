package converter

import (
	"fmt"
	"io"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/schemaregistry"
	"go.uber.org/zap"
)

// Instantiator builds configured plugin instances from a registry.
type Instantiator struct {
	registry       *Registry
	schemaRegistry schemaregistry.Registry
	logger         *zap.Logger
}

// NewInstantiator returns an Instantiator. schemaRegistry may be nil; when
// set it is handed to every plugin implementing SchemaRegistryAware.
func NewInstantiator(registry *Registry, schemaRegistry schemaregistry.Registry, logger *zap.Logger) *Instantiator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instantiator{
		registry:       registry,
		schemaRegistry: schemaRegistry,
		logger:         logger,
	}
}

// Serializer builds the delegate serializer of type typeName and configures
// it with props (already stripped of the "converter." prefix).
func (in *Instantiator) Serializer(typeName string, props configdef.Props, isKey bool) (Serializer, error) {
	inst, err := in.construct(ConverterConfig, typeName, KindSerializer)
	if err != nil {
		return nil, err
	}
	s, ok := inst.(Serializer)
	if !ok {
		return nil, &InstantiationError{Role: ConverterConfig, Type: typeName,
			Err: fmt.Errorf("factory returned %T: %w", inst, ErrInvalidPluginType)}
	}
	if err := guard(func() error { return s.Configure(props, isKey) }); err != nil {
		closeQuietly(s)
		return nil, &InstantiationError{Role: ConverterConfig, Type: typeName, Err: err}
	}
	return s, nil
}

// Transformation builds the stage for alias and configures it with props
// (already stripped of the "transforms.<alias>." prefix).
func (in *Instantiator) Transformation(alias, typeName string, props configdef.Props) (Transformation, error) {
	inst, err := in.construct(alias, typeName, KindTransformation)
	if err != nil {
		return nil, err
	}
	t, ok := inst.(Transformation)
	if !ok {
		return nil, &InstantiationError{Role: alias, Type: typeName,
			Err: fmt.Errorf("factory returned %T: %w", inst, ErrInvalidPluginType)}
	}
	if err := guard(func() error { return t.Configure(props) }); err != nil {
		closeQuietly(t)
		return nil, &InstantiationError{Role: alias, Type: typeName, Err: err}
	}
	return t, nil
}

func (in *Instantiator) construct(role, typeName string, want Kind) (any, error) {
	p, err := in.registry.Lookup(typeName)
	if err != nil {
		return nil, &InstantiationError{Role: role, Type: typeName, Err: err}
	}
	if p.Kind != want {
		return nil, &InstantiationError{Role: role, Type: typeName,
			Err: fmt.Errorf("%q is a %s, not a %s: %w", typeName, p.Kind, want, ErrInvalidPluginType)}
	}

	var inst any
	if err := guard(func() error { inst = p.New(); return nil }); err != nil {
		return nil, &InstantiationError{Role: role, Type: typeName, Err: err}
	}
	if inst == nil {
		return nil, &InstantiationError{Role: role, Type: typeName,
			Err: fmt.Errorf("factory returned nil: %w", ErrInvalidPluginType)}
	}

	if aware, ok := inst.(SchemaRegistryAware); ok && in.schemaRegistry != nil {
		in.logger.Debug("Injecting schema registry", zap.String("role", role), zap.String("type", typeName))
		aware.SetSchemaRegistry(in.schemaRegistry)
	}
	return inst, nil
}

// guard turns a panic inside plugin code into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func closeQuietly(v any) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}

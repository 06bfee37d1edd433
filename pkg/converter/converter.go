package converter

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/metrics"
	"github.com/edgeflare/smtconv/pkg/schemaregistry"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Converter runs records through a configured chain of transformations and
// hands the result to a delegate serializer. Configure it once; Encode is
// then safe for concurrent use.
type Converter struct {
	name           string
	registry       *Registry
	schemaRegistry schemaregistry.Registry
	logger         *zap.Logger

	configuring atomic.Bool
	state       atomic.Pointer[state]
}

// state is immutable once published.
type state struct {
	label         string
	logger        *zap.Logger
	isKey         bool
	delegateType  string
	delegate      Serializer
	chain         Chain
	encoded       prometheus.Counter
	dropped       prometheus.Counter
	delegateError prometheus.Counter
	duration      prometheus.Observer
}

// Option configures a Converter.
type Option func(*Converter)

// WithRegistry resolves plugin types from r instead of the default registry.
func WithRegistry(r *Registry) Option {
	return func(c *Converter) { c.registry = r }
}

// WithSchemaRegistry shares a schema registry client with plugins that
// implement SchemaRegistryAware.
func WithSchemaRegistry(r schemaregistry.Registry) Option {
	return func(c *Converter) { c.schemaRegistry = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithName labels logs and metrics. Defaults to "key" or "value".
func WithName(name string) Option {
	return func(c *Converter) { c.name = name }
}

// New returns an unconfigured Converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		registry: defaultRegistry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Configure validates props, builds the delegate serializer and every
// transformation stage. It either succeeds completely or leaves the
// converter unconfigured with any partially built plugins closed.
func (c *Converter) Configure(props configdef.Props, isKey bool) error {
	if c.state.Load() != nil || !c.configuring.CompareAndSwap(false, true) {
		return ErrAlreadyConfigured
	}
	defer c.configuring.Store(false)

	label := c.name
	if label == "" {
		label = "value"
		if isKey {
			label = "key"
		}
	}
	logger := c.logger.With(zap.String("converter", label))

	def, err := Compose(BaseConfigDef, props, c.registry)
	if err != nil {
		logger.Error("Invalid transformation configuration", zap.Error(err))
		return fmt.Errorf("invalid converter configuration: %w", err)
	}
	values, err := def.Parse(props)
	if err != nil {
		logger.Error("Invalid converter configuration", zap.Error(err))
		return fmt.Errorf("invalid converter configuration: %w", err)
	}

	in := NewInstantiator(c.registry, c.schemaRegistry, logger)

	delegateType := values.String(ConverterConfig)
	delegate, err := in.Serializer(delegateType, props.WithPrefix(converterPrefix), isKey)
	if err != nil {
		logger.Error("Failed to build serializer", zap.String("type", delegateType), zap.Error(err))
		return err
	}

	aliases := Aliases(values.List(TransformsConfig))
	chain := make(Chain, 0, len(aliases))
	for _, alias := range aliases {
		prefix := StagePrefix(alias)
		typeName := values.String(prefix + typeSuffix)

		logger.Debug("Adding transformation",
			zap.String("alias", alias),
			zap.String("type", typeName))

		t, err := in.Transformation(alias, typeName, stageProps(props, alias, aliases))
		if err != nil {
			logger.Error("Failed to build transformation",
				zap.String("alias", alias),
				zap.String("type", typeName),
				zap.Error(err))
			closeAll(delegate, chain)
			return err
		}
		chain = append(chain, Stage{Alias: alias, Type: typeName, Transformation: t})
	}

	c.state.Store(&state{
		label:         label,
		logger:        logger,
		isKey:         isKey,
		delegateType:  delegateType,
		delegate:      delegate,
		chain:         chain,
		encoded:       metrics.EncodedRecords.WithLabelValues(label),
		dropped:       metrics.DroppedRecords.WithLabelValues(label),
		delegateError: metrics.EncodeErrors.WithLabelValues(label, ConverterConfig),
		duration:      metrics.EncodeDuration.WithLabelValues(label),
	})
	logger.Info("Configured converter",
		zap.String("serializer", delegateType),
		zap.Strings("transforms", chain.Aliases()),
		zap.Bool("isKey", isKey))
	return nil
}

// stageProps returns the slice of props for a stage, without its type key.
// Keys of other aliases nested under this one ("a" and "a.b") are left out.
func stageProps(props configdef.Props, alias string, aliases []string) configdef.Props {
	prefix := StagePrefix(alias)
	out := props.WithPrefix(prefix)
	delete(out, typeSuffix)
	for _, other := range aliases {
		nested, ok := strings.CutPrefix(StagePrefix(other), prefix)
		if !ok || other == alias {
			continue
		}
		for k := range out {
			if strings.HasPrefix(k, nested) {
				delete(out, k)
			}
		}
	}
	return out
}

// Encode transforms the record built from topic, schema and value, then
// serializes the result. A nil slice with a nil error means a stage dropped
// the record or the serializer produced no output.
func (c *Converter) Encode(topic string, schema *connect.Schema, value any) ([]byte, error) {
	_, out, err := c.EncodeRecord(connect.NewRecord(topic, schema, value))
	return out, err
}

// EncodeRecord is Encode for callers that need the transformed record, for
// example to publish to a rewritten topic. The returned record is nil when a
// stage dropped it.
func (c *Converter) EncodeRecord(rec *connect.Record) (*connect.Record, []byte, error) {
	st := c.state.Load()
	if st == nil {
		return nil, nil, ErrNotConfigured
	}
	if rec == nil {
		return nil, nil, ErrNilRecord
	}

	timer := prometheus.NewTimer(st.duration)
	defer timer.ObserveDuration()

	out, failed, err := st.chain.apply(rec)
	if err != nil {
		metrics.EncodeErrors.WithLabelValues(st.label, st.chain[failed].Alias).Inc()
		st.logger.Debug("Transformation failed",
			zap.String("topic", rec.Topic),
			zap.String("alias", st.chain[failed].Alias),
			zap.Error(err))
		return nil, nil, err
	}
	if out == nil {
		st.dropped.Inc()
		st.logger.Debug("Record dropped", zap.String("topic", rec.Topic))
		return nil, nil, nil
	}

	data, err := st.delegate.Encode(out.Topic, out.Schema, out.Value)
	if err != nil {
		st.delegateError.Inc()
		return nil, nil, err
	}
	st.encoded.Inc()
	return out, data, nil
}

// Decode always fails: the converter only supports the write path.
func (c *Converter) Decode(topic string, data []byte) (*connect.Schema, any, error) {
	return nil, nil, fmt.Errorf("decode from topic %s: %w", topic, ErrUnsupportedOperation)
}

// Configured reports whether Configure has succeeded.
func (c *Converter) Configured() bool {
	return c.state.Load() != nil
}

// IsKey reports whether the converter was configured for record keys.
func (c *Converter) IsKey() bool {
	st := c.state.Load()
	return st != nil && st.isKey
}

// Stages returns the configured stage aliases in order.
func (c *Converter) Stages() []string {
	st := c.state.Load()
	if st == nil {
		return nil
	}
	return st.chain.Aliases()
}

// Close releases plugins implementing io.Closer. The converter is
// unconfigured afterwards.
func (c *Converter) Close() error {
	st := c.state.Swap(nil)
	if st == nil {
		return nil
	}
	return closeAll(st.delegate, st.chain)
}

func closeAll(delegate Serializer, chain Chain) error {
	var errs []error
	for _, s := range chain {
		if cl, ok := s.Transformation.(io.Closer); ok {
			if err := cl.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", s.Alias, err))
			}
		}
	}
	if cl, ok := delegate.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", ConverterConfig, err))
		}
	}
	return errors.Join(errs...)
}

package converter

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/schemaregistry"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

var suffixDef = configdef.New().MustDefine(configdef.Key{
	Name:       "suffix",
	Type:       configdef.TypeString,
	Default:    "",
	HasDefault: true,
	Doc:        "Appended to string values",
})

var emptyDef = configdef.New()

type upperTransform struct{}

func (upperTransform) Configure(configdef.Props) error { return nil }

func (upperTransform) Apply(rec *connect.Record) (*connect.Record, error) {
	s, ok := rec.Value.(string)
	if !ok {
		return rec, nil
	}
	out := rec.Copy()
	out.Value = strings.ToUpper(s)
	return out, nil
}

// appendTransform appends its configured suffix to the rendered value.
type appendTransform struct {
	suffix string
}

func (a *appendTransform) Configure(props configdef.Props) error {
	values, err := suffixDef.Parse(props)
	if err != nil {
		return err
	}
	a.suffix = values.String("suffix")
	return nil
}

func (a *appendTransform) Apply(rec *connect.Record) (*connect.Record, error) {
	out := rec.Copy()
	out.Value = fmt.Sprint(rec.Value) + a.suffix
	return out, nil
}

// retopicTransform appends its suffix to the topic.
type retopicTransform struct {
	appendTransform
}

func (r *retopicTransform) Apply(rec *connect.Record) (*connect.Record, error) {
	out := rec.Copy()
	out.Topic = rec.Topic + r.suffix
	return out, nil
}

type dropTransform struct{}

func (dropTransform) Configure(configdef.Props) error { return nil }

func (dropTransform) Apply(*connect.Record) (*connect.Record, error) { return nil, nil }

type failTransform struct{}

func (failTransform) Configure(configdef.Props) error { return nil }

func (failTransform) Apply(*connect.Record) (*connect.Record, error) { return nil, errBoom }

type countingTransform struct {
	calls atomic.Int64
}

func (c *countingTransform) Configure(configdef.Props) error { return nil }

func (c *countingTransform) Apply(rec *connect.Record) (*connect.Record, error) {
	c.calls.Add(1)
	return rec, nil
}

type badConfigTransform struct{}

func (badConfigTransform) Configure(configdef.Props) error { return errBoom }

func (badConfigTransform) Apply(rec *connect.Record) (*connect.Record, error) { return rec, nil }

// echoSerializer renders the value with fmt and remembers how it was used.
type echoSerializer struct {
	mu       sync.Mutex
	props    configdef.Props
	isKey    bool
	registry schemaregistry.Registry
	events   []string
	calls    atomic.Int64
	closed   atomic.Bool
}

func (e *echoSerializer) Configure(props configdef.Props, isKey bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.props = props
	e.isKey = isKey
	e.events = append(e.events, "configure")
	return nil
}

func (e *echoSerializer) Encode(topic string, schema *connect.Schema, value any) ([]byte, error) {
	e.calls.Add(1)
	if value == nil {
		return nil, nil
	}
	return []byte(fmt.Sprint(value)), nil
}

func (e *echoSerializer) Close() error {
	e.closed.Store(true)
	return nil
}

// awareSerializer also accepts the shared schema registry.
type awareSerializer struct {
	echoSerializer
}

func (a *awareSerializer) SetSchemaRegistry(r schemaregistry.Registry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registry = r
	a.events = append(a.events, "registry")
}

type fixtures struct {
	registry *Registry
	echo     *echoSerializer
	aware    *awareSerializer
	counter  *countingTransform
}

func newFixtures(t *testing.T) *fixtures {
	t.Helper()
	f := &fixtures{
		registry: NewRegistry(),
		echo:     &echoSerializer{},
		aware:    &awareSerializer{},
		counter:  &countingTransform{},
	}
	r := f.registry
	require.NoError(t, r.RegisterSerializer("echo", "fmt rendering", func() Serializer { return f.echo }))
	require.NoError(t, r.RegisterSerializer("aware", "registry aware", func() Serializer { return f.aware }))
	require.NoError(t, r.RegisterTransformation("upper", "upper-cases strings", emptyDef, func() Transformation { return upperTransform{} }))
	require.NoError(t, r.RegisterTransformation("append", "appends a suffix", suffixDef, func() Transformation { return &appendTransform{} }))
	require.NoError(t, r.RegisterTransformation("retopic", "appends a suffix to the topic", suffixDef, func() Transformation { return &retopicTransform{} }))
	require.NoError(t, r.RegisterTransformation("drop", "drops everything", emptyDef, func() Transformation { return dropTransform{} }))
	require.NoError(t, r.RegisterTransformation("fail", "always fails", emptyDef, func() Transformation { return failTransform{} }))
	require.NoError(t, r.RegisterTransformation("count", "counts calls", emptyDef, func() Transformation { return f.counter }))
	require.NoError(t, r.RegisterTransformation("badconfig", "rejects any config", emptyDef, func() Transformation { return badConfigTransform{} }))
	require.NoError(t, r.RegisterTransformation("noschema", "", nil, func() Transformation { return upperTransform{} }))
	require.NoError(t, r.RegisterTransformation("panics", "", emptyDef, func() Transformation { panic("factory exploded") }))
	require.NoError(t, r.RegisterTransformation("nil", "", emptyDef, func() Transformation { return nil }))
	return f
}

func (f *fixtures) converter(t *testing.T, props configdef.Props, opts ...Option) *Converter {
	t.Helper()
	c := New(append([]Option{WithRegistry(f.registry)}, opts...)...)
	require.NoError(t, c.Configure(props, false))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

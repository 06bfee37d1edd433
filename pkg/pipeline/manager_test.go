package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errFake = errors.New("fake failure")

// fakeConnector records everything it is asked to do.
type fakeConnector struct {
	mu       sync.Mutex
	config   map[string]any
	args     []any
	attempts int
	messages []Message

	// FailConnect fails this many Connect calls before succeeding
	FailConnect int
	FailPub     bool
	FailClose   bool
}

func (f *fakeConnector) Connect(config json.RawMessage, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if err := json.Unmarshal(config, &f.config); err != nil {
		return err
	}
	if n, ok := f.config["failConnect"].(float64); ok {
		f.FailConnect = int(n)
	}
	if f.attempts <= f.FailConnect {
		return errFake
	}
	f.args = args
	return nil
}

func (f *fakeConnector) Pub(msg Message, _ ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailPub {
		return errFake
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeConnector) Disconnect() error {
	if f.FailClose {
		return errFake
	}
	return nil
}

func (f *fakeConnector) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.messages...)
}

func init() {
	RegisterConnector("fake", func() Connector { return &fakeConnector{} })
}

func fake(t *testing.T, p *Peer) *fakeConnector {
	t.Helper()
	f, ok := p.Connector().(*fakeConnector)
	require.True(t, ok, "connector is %T", p.Connector())
	return f
}

func TestNewConnector(t *testing.T) {
	a, err := NewConnector("fake")
	require.NoError(t, err)
	b, err := NewConnector("fake")
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	_, err = NewConnector("carrier-pigeon")
	assert.ErrorIs(t, err, ErrConnectorNotFound)

	assert.Contains(t, Connectors(), "fake")
}

func TestManagerAddPeer(t *testing.T) {
	m := NewManager()

	a, err := m.AddPeer("fake", "a")
	require.NoError(t, err)
	b, err := m.AddPeer("fake", "b")
	require.NoError(t, err)
	assert.NotSame(t, a.Connector(), b.Connector())

	_, err = m.AddPeer("fake", "a")
	assert.Error(t, err)
	_, err = m.AddPeer("unknown", "c")
	assert.ErrorIs(t, err, ErrConnectorNotFound)

	peers := m.Peers()
	require.Len(t, peers, 2)
	assert.Equal(t, "a", peers[0].Name)
	assert.Equal(t, "b", peers[1].Name)

	got, err := m.GetPeer("b")
	require.NoError(t, err)
	assert.Same(t, b, got)
	_, err = m.GetPeer("z")
	assert.Error(t, err)
}

func TestManagerInit(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewManager(zap.New(core))

	err := m.Init(context.Background(), &Config{
		Peers: []Peer{
			{Name: "one", ConnectorName: "fake", Config: map[string]any{"brokers": []any{"b1"}}, Args: []any{"extra"}},
			{Name: "two", ConnectorName: "fake"},
		},
	})
	require.NoError(t, err)

	one, err := m.GetPeer("one")
	require.NoError(t, err)
	f := fake(t, one)
	assert.Equal(t, []any{"b1"}, f.config["brokers"])
	require.Len(t, f.args, 2)
	assert.Equal(t, "extra", f.args[0])
	assert.NotNil(t, LoggerArg(f.args))

	assert.Equal(t, 2, logs.FilterMessage("Successfully connected peer").Len())
	require.NoError(t, m.Close())
}

func TestManagerInitRetries(t *testing.T) {
	m := NewManager()
	m.connectBackoff = time.Millisecond

	err := m.Init(context.Background(), &Config{
		Peers: []Peer{{Name: "flaky", ConnectorName: "fake", Config: map[string]any{"failConnect": 2}}},
	})
	require.NoError(t, err)
	p, _ := m.GetPeer("flaky")
	assert.Equal(t, 3, fake(t, p).attempts)

	m = NewManager()
	m.connectBackoff = time.Millisecond
	m.connectRetries = 1
	err = m.Init(context.Background(), &Config{
		Peers: []Peer{{Name: "down", ConnectorName: "fake", Config: map[string]any{"failConnect": 5}}},
	})
	assert.ErrorIs(t, err, errFake)
}

func TestManagerInitErrors(t *testing.T) {
	m := NewManager()
	err := m.Init(context.Background(), &Config{Peers: []Peer{{Name: "x", ConnectorName: "nope"}}})
	assert.ErrorIs(t, err, ErrConnectorNotFound)

	err = NewManager().Init(context.Background(), &Config{Plugins: map[string]string{"p": "/nonexistent/plugin.so"}})
	assert.Error(t, err)

	m = NewManager()
	err = m.Init(context.Background(), &Config{
		Peers: []Peer{{Name: "bad", ConnectorName: "fake", Config: map[string]any{"ch": make(chan int)}}},
	})
	assert.Error(t, err)
}

func TestManagerClose(t *testing.T) {
	m := NewManager()
	p, err := m.AddPeer("fake", "a")
	require.NoError(t, err)
	fake(t, p).FailClose = true
	_, err = m.AddPeer("fake", "b")
	require.NoError(t, err)

	err = m.Close()
	assert.ErrorIs(t, err, errFake)
	assert.Contains(t, err.Error(), "disconnect a")
}

func TestConfigGetPeer(t *testing.T) {
	c := Config{Peers: []Peer{{Name: "a", ConnectorName: "kafka"}}}
	require.NotNil(t, c.GetPeer("a"))
	assert.Equal(t, "kafka", c.GetPeer("a").ConnectorName)
	assert.Nil(t, c.GetPeer("b"))
}

func TestLoggerArg(t *testing.T) {
	l := zap.NewNop()
	assert.Nil(t, LoggerArg(nil))
	assert.Nil(t, LoggerArg([]any{"x", (*zap.Logger)(nil)}))
	assert.Same(t, l, LoggerArg([]any{"x", l}))
}

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/converter"
	_ "github.com/edgeflare/smtconv/pkg/serializer"
	_ "github.com/edgeflare/smtconv/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConverter(t *testing.T, props configdef.Props, isKey bool) *converter.Converter {
	t.Helper()
	c := converter.New()
	require.NoError(t, c.Configure(props, isKey))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newProducer(t *testing.T, sinks ...string) (*Producer, *Manager) {
	t.Helper()
	m := NewManager()
	for _, name := range sinks {
		_, err := m.AddPeer("fake", name)
		require.NoError(t, err)
	}

	key := newConverter(t, configdef.Props{"converter": "string"}, true)
	value := newConverter(t, configdef.Props{
		"converter":                          "json",
		"converter.schemas.enable":           false,
		"transforms":                         "only,route",
		"transforms.only.type":               "filter",
		"transforms.only.match.field":        "status",
		"transforms.only.match.values":       "paid",
		"transforms.route.type":              "replace",
		"transforms.route.topic.regex":       `^shop\.(.*)$`,
		"transforms.route.topic.replacement": "paid.$1",
	}, false)

	p, err := NewProducer(m, key, value, sinks)
	require.NoError(t, err)
	return p, m
}

func TestProducerEncode(t *testing.T) {
	p, _ := newProducer(t)
	ts := time.UnixMilli(1700000000000)

	msg, err := p.Encode(Input{
		Topic:     "shop.orders",
		Key:       1,
		Value:     map[string]any{"id": 1, "status": "paid"},
		Timestamp: ts,
	})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "paid.orders", msg.Topic)
	assert.Equal(t, []byte("1"), msg.Key)
	assert.JSONEq(t, `{"id":1,"status":"paid"}`, string(msg.Value))
	assert.True(t, ts.Equal(msg.Timestamp))

	msg, err = p.Encode(Input{Topic: "shop.orders", Key: 2, Value: map[string]any{"id": 2, "status": "open"}})
	require.NoError(t, err)
	assert.Nil(t, msg)

	msg, err = p.Encode(Input{Topic: "shop.orders", Value: map[string]any{"status": "paid"}})
	require.NoError(t, err)
	assert.Nil(t, msg.Key)
}

func TestProducerSend(t *testing.T) {
	p, m := newProducer(t, "a", "b")
	ctx := context.Background()

	require.NoError(t, p.Send(ctx, Input{Topic: "shop.orders", Key: "k", Value: map[string]any{"status": "paid"}}))
	require.NoError(t, p.Send(ctx, Input{Topic: "shop.orders", Value: map[string]any{"status": "open"}}))

	for _, name := range []string{"a", "b"} {
		peer, err := m.GetPeer(name)
		require.NoError(t, err)
		msgs := fake(t, peer).Messages()
		require.Len(t, msgs, 1, name)
		assert.Equal(t, "paid.orders", msgs[0].Topic)
		assert.Equal(t, []byte("k"), msgs[0].Key)
	}

	a, _ := m.GetPeer("a")
	fake(t, a).FailPub = true
	err := p.Send(ctx, Input{Topic: "shop.orders", Value: map[string]any{"status": "paid"}})
	assert.ErrorIs(t, err, errFake)
	assert.Contains(t, err.Error(), "publish to a")

	b, _ := m.GetPeer("b")
	assert.Len(t, fake(t, b).Messages(), 2)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, p.Send(cancelled, Input{Topic: "shop.orders"}), context.Canceled)
}

func TestProducerEncodeError(t *testing.T) {
	m := NewManager()
	value := newConverter(t, configdef.Props{"converter": "bytes"}, false)
	p, err := NewProducer(m, nil, value, nil)
	require.NoError(t, err)

	_, err = p.Encode(Input{Topic: "t", Value: 42})
	assert.ErrorContains(t, err, "encode value")
}

func TestNewProducerErrors(t *testing.T) {
	m := NewManager()
	_, err := NewProducer(m, nil, nil, nil)
	assert.Error(t, err)

	value := newConverter(t, configdef.Props{"converter": "string"}, false)
	_, err = NewProducer(m, nil, value, []string{"missing"})
	assert.Error(t, err)
}

func TestProducerRun(t *testing.T) {
	p, m := newProducer(t, "a")
	inputs := make(chan Input, 3)
	inputs <- Input{Topic: "shop.orders", Value: map[string]any{"status": "paid"}}
	inputs <- Input{Topic: "shop.orders", Value: map[string]any{"status": "open"}}
	inputs <- Input{Topic: "shop.refunds", Value: map[string]any{"status": "paid"}}
	close(inputs)

	p.Run(context.Background(), inputs)

	a, _ := m.GetPeer("a")
	msgs := fake(t, a).Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "paid.orders", msgs[0].Topic)
	assert.Equal(t, "paid.refunds", msgs[1].Topic)
}

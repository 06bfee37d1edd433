package mqtt

import (
	"strings"
	"testing"
	"time"

	"github.com/edgeflare/smtconv/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	tests := []struct {
		prefix, topic, want string
	}{
		{"", "shop.orders", "shop.orders"},
		{"smtconv", "shop.orders", "smtconv/shop.orders"},
		{"a/b/", "orders", "a/b/orders"},
	}
	for _, tt := range tests {
		p := &PeerMQTT{Config: Config{TopicPrefix: tt.prefix}}
		assert.Equal(t, tt.want, p.Topic(tt.topic))
	}
}

func TestConvertToPahoOptions(t *testing.T) {
	opts, err := convertToPahoOptions([]string{"tcp://broker:1883"}, &ClientOptions{
		ClientID:       "c1",
		Username:       "u",
		Password:       "p",
		KeepAlive:      30,
		ConnectTimeout: 5 * time.Second,
		AutoReconnect:  true,
	})
	require.NoError(t, err)
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
	assert.Equal(t, "c1", opts.ClientID)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, int64(30), opts.KeepAlive)
	assert.Equal(t, 5*time.Second, opts.ConnectTimeout)
	assert.True(t, opts.AutoReconnect)

	_, err = convertToPahoOptions(nil, &ClientOptions{TLS: &TLSOptions{CACert: "not a pem"}})
	assert.Error(t, err)
}

func TestSetDefaultOptions(t *testing.T) {
	t.Setenv("SMTCONV_MQTT_BROKER", "tcp://env:1883")
	t.Setenv("SMTCONV_MQTT_USERNAME", "envuser")

	opts, err := convertToPahoOptions(nil, &ClientOptions{})
	require.NoError(t, err)
	setDefaultOptions(opts)

	assert.Equal(t, []string{"tcp://env:1883"}, getBrokerStrings(opts))
	assert.Equal(t, "envuser", opts.Username)
	assert.True(t, strings.HasPrefix(opts.ClientID, "smtconv-"))
}

func TestCreateTLSConfig(t *testing.T) {
	cfg, err := createTLSConfig(nil)
	assert.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = createTLSConfig(&TLSOptions{InsecureSkipVerify: true, ServerName: "broker"})
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, "broker", cfg.ServerName)

	_, err = createTLSConfig(&TLSOptions{CAFile: "/nonexistent/ca.pem"})
	assert.Error(t, err)
}

func TestPeerMQTTNotConnected(t *testing.T) {
	p := &PeerMQTT{}
	assert.ErrorIs(t, p.Pub(pipeline.Message{Topic: "t"}), pipeline.ErrNotConnected)
	assert.NoError(t, p.Disconnect())

	assert.Error(t, p.Connect([]byte(`{"qos":3}`)))
	assert.Error(t, (&Client{}).Publish("t", 0, false, nil))
}

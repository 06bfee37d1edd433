package nats

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/edgeflare/smtconv/pkg/pipeline"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.setDefaults()
	assert.Equal(t, []string{nats.DefaultURL}, c.Servers)
	assert.Equal(t, "smtconv", c.SubjectPrefix)
	assert.Equal(t, "smtconv-stream", c.Stream)

	c = Config{SubjectPrefix: "shop.cdc"}
	c.setDefaults()
	assert.Equal(t, "shop-cdc-stream", c.Stream)
}

func TestMessage(t *testing.T) {
	p := &PeerNATS{Config: Config{SubjectPrefix: "cdc"}}
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	m := p.Message(pipeline.Message{Topic: "shop.orders", Key: []byte{0x00, 0x01}, Value: []byte("v"), Timestamp: ts})
	assert.Equal(t, "cdc.shop.orders", m.Subject)
	assert.Equal(t, []byte("v"), m.Data)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0x00, 0x01}), m.Header.Get(HeaderKey))
	assert.Equal(t, "2024-01-02T15:04:05Z", m.Header.Get(HeaderTimestamp))

	m = p.Message(pipeline.Message{Topic: "t"})
	assert.Empty(t, m.Header.Get(HeaderKey))
	assert.Empty(t, m.Header.Get(HeaderTimestamp))
}

func TestPub(t *testing.T) {
	var got []*nats.Msg
	p := &PeerNATS{Config: Config{SubjectPrefix: "cdc"}}
	assert.ErrorIs(t, p.Pub(pipeline.Message{Topic: "t"}), pipeline.ErrNotConnected)

	p.publish = func(m *nats.Msg) error {
		got = append(got, m)
		return nil
	}
	p.logger = zap.NewNop()
	require.NoError(t, p.Pub(pipeline.Message{Topic: "t", Value: []byte("x")}))
	require.Len(t, got, 1)
	assert.Equal(t, "cdc.t", got[0].Subject)

	p.publish = func(*nats.Msg) error { return nats.ErrConnectionClosed }
	err := p.Pub(pipeline.Message{Topic: "t"})
	assert.True(t, errors.Is(err, nats.ErrConnectionClosed))
}

func TestStreamConfigEqual(t *testing.T) {
	a := nats.StreamConfig{Name: "s", Subjects: []string{"a.>"}, Storage: nats.FileStorage, Replicas: 1}
	b := a
	assert.True(t, streamConfigEqual(a, b))
	b.Subjects = []string{"b.>"}
	assert.False(t, streamConfigEqual(a, b))
	b = a
	b.Replicas = 3
	assert.False(t, streamConfigEqual(a, b))
}

func TestDefaultOptions(t *testing.T) {
	c := Config{Username: "u", Password: "p"}
	assert.Len(t, defaultOptions(c), 6)
	c.TLS.Enabled = true
	c.TLS.CAFile = "ca.pem"
	c.TLS.CertFile = "cert.pem"
	c.TLS.KeyFile = "key.pem"
	assert.Len(t, defaultOptions(c), 8)
}

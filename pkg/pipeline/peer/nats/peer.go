package nats

import (
	"cmp"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/edgeflare/smtconv/pkg/pipeline"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	// HeaderKey carries the base64 encoded record key.
	HeaderKey = "Smtconv-Key"
	// HeaderTimestamp carries the record timestamp in RFC 3339 with nanoseconds.
	HeaderTimestamp = "Smtconv-Timestamp"
)

// PeerNATS publishes messages to NATS subjects, through JetStream unless disabled.
type PeerNATS struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
	logger  *zap.Logger
	Config  Config

	publish func(*nats.Msg) error
}

// Config represents NATS configuration
type Config struct {
	Servers       []string `json:"servers"`
	Stream        string   `json:"stream"`
	SubjectPrefix string   `json:"subjectPrefix"`
	// DisableJetStream publishes with core NATS; no stream is created.
	DisableJetStream bool   `json:"disableJetStream,omitempty"`
	Username         string `json:"username,omitempty"`
	Password         string `json:"password,omitempty"`
	TLS              struct {
		Enabled  bool   `json:"enabled"`
		CertFile string `json:"certFile,omitempty"`
		KeyFile  string `json:"keyFile,omitempty"`
		CAFile   string `json:"caFile,omitempty"`
	} `json:"tls,omitempty"`
}

func (c *Config) setDefaults() {
	if len(c.Servers) == 0 {
		c.Servers = []string{nats.DefaultURL}
	}
	c.SubjectPrefix = cmp.Or(c.SubjectPrefix, "smtconv")
	// stream names must not contain dots
	c.Stream = cmp.Or(c.Stream, strings.ReplaceAll(c.SubjectPrefix, ".", "-")+"-stream")
}

// Connect establishes a connection to the NATS server
func (p *PeerNATS) Connect(config json.RawMessage, args ...any) error {
	if err := json.Unmarshal(config, &p.Config); err != nil {
		return fmt.Errorf("unmarshal NATS config: %w", err)
	}
	p.Config.setDefaults()
	p.subject = fmt.Sprintf("%s.>", p.Config.SubjectPrefix)

	p.logger = pipeline.LoggerArg(args)
	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	opts := defaultOptions(p.Config)

	// Connect to first available server
	var err error
	for _, server := range p.Config.Servers {
		p.nc, err = nats.Connect(server, opts...)
		if err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("connect to NATS server: %w", err)
	}

	if p.Config.DisableJetStream {
		p.publish = p.nc.PublishMsg
		return nil
	}

	if p.js, err = p.nc.JetStream(); err != nil {
		p.nc.Close()
		return fmt.Errorf("create JetStream context: %w", err)
	}

	if err := p.ensureStream(); err != nil {
		p.nc.Close()
		return fmt.Errorf("ensure stream: %w", err)
	}

	p.publish = func(m *nats.Msg) error {
		_, err := p.js.PublishMsg(m)
		return err
	}
	return nil
}

// Subject returns the NATS subject a record topic is published to.
func (p *PeerNATS) Subject(topic string) string {
	return p.Config.SubjectPrefix + "." + topic
}

// Message builds the NATS message for msg.
func (p *PeerNATS) Message(msg pipeline.Message) *nats.Msg {
	m := nats.NewMsg(p.Subject(msg.Topic))
	m.Data = msg.Value
	if msg.Key != nil {
		m.Header.Set(HeaderKey, base64.StdEncoding.EncodeToString(msg.Key))
	}
	if !msg.Timestamp.IsZero() {
		m.Header.Set(HeaderTimestamp, msg.Timestamp.UTC().Format(time.RFC3339Nano))
	}
	return m
}

// Pub publishes an encoded record to NATS
func (p *PeerNATS) Pub(msg pipeline.Message, _ ...any) error {
	if p.publish == nil {
		return pipeline.ErrNotConnected
	}

	m := p.Message(msg)
	if err := p.publish(m); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	p.logger.Debug("Published message", zap.String("subject", m.Subject))
	return nil
}

// Disconnect closes the NATS connection
func (p *PeerNATS) Disconnect() error {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.nc.Close()
		}
	}
	return nil
}

// ensureStream creates or updates the stream
func (p *PeerNATS) ensureStream() error {
	config := &nats.StreamConfig{
		Name:     p.Config.Stream,
		Subjects: []string{p.subject},
		Storage:  nats.FileStorage,
		Replicas: 1,
	}

	stream, err := p.js.StreamInfo(p.Config.Stream)
	if err == nil {
		if !streamConfigEqual(stream.Config, *config) {
			if _, err = p.js.UpdateStream(config); err != nil {
				return fmt.Errorf("update stream: %w", err)
			}
			p.logger.Info("Updated stream", zap.String("stream", p.Config.Stream))
		}
		return nil
	}

	if err != nats.ErrStreamNotFound {
		return fmt.Errorf("get stream info: %w", err)
	}

	if _, err := p.js.AddStream(config); err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	p.logger.Info("Created stream", zap.String("stream", p.Config.Stream))
	return nil
}

// streamConfigEqual checks if two nats.StreamConfig are equivalent
func streamConfigEqual(a, b nats.StreamConfig) bool {
	if a.Name != b.Name || a.Storage != b.Storage || a.Replicas != b.Replicas {
		return false
	}

	if len(a.Subjects) != len(b.Subjects) {
		return false
	}

	for i := range a.Subjects {
		if a.Subjects[i] != b.Subjects[i] {
			return false
		}
	}
	return true
}

func defaultOptions(c Config) []nats.Option {
	opts := []nats.Option{
		nats.Timeout(5 * time.Second),
		nats.PingInterval(10 * time.Second),
		nats.MaxPingsOutstanding(3),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	}

	if c.Username != "" && c.Password != "" {
		opts = append(opts, nats.UserInfo(c.Username, c.Password))
	}

	if c.TLS.Enabled {
		if c.TLS.CAFile != "" {
			opts = append(opts, nats.RootCAs(c.TLS.CAFile))
		}
		if c.TLS.CertFile != "" && c.TLS.KeyFile != "" {
			opts = append(opts, nats.ClientCert(c.TLS.CertFile, c.TLS.KeyFile))
		}
	}

	return opts
}

func init() {
	pipeline.RegisterConnector(pipeline.ConnectorNATS, func() pipeline.Connector { return &PeerNATS{} })
}

package debug

import (
	"encoding/json"
	"fmt"

	"github.com/edgeflare/smtconv/pkg/pipeline"
	"go.uber.org/zap"
)

// Config selects how payloads are rendered in the log.
type Config struct {
	// Format is "text" (default) or "hex"
	Format string `json:"format"`
}

// PeerDebug is a debug peer that logs messages
type PeerDebug struct {
	config Config
	logger *zap.Logger
}

// New returns a debug peer logging to logger.
func New(logger *zap.Logger) *PeerDebug {
	return &PeerDebug{logger: logger}
}

func (p *PeerDebug) Pub(msg pipeline.Message, _ ...any) error {
	if p.logger == nil {
		return pipeline.ErrNotConnected
	}
	p.logger.Info(pipeline.ConnectorDebug,
		zap.String("topic", msg.Topic),
		zap.String("key", p.render(msg.Key)),
		zap.String("value", p.render(msg.Value)),
		zap.Time("timestamp", msg.Timestamp))
	return nil
}

func (p *PeerDebug) render(b []byte) string {
	if b == nil {
		return ""
	}
	if p.config.Format == "hex" {
		return fmt.Sprintf("%x", b)
	}
	return string(b)
}

func (p *PeerDebug) Connect(config json.RawMessage, args ...any) error {
	if len(config) > 0 && string(config) != "null" {
		if err := json.Unmarshal(config, &p.config); err != nil {
			return fmt.Errorf("failed to unmarshal debug config: %w", err)
		}
	}
	switch p.config.Format {
	case "", "text", "hex":
	default:
		return fmt.Errorf("invalid debug format: %s", p.config.Format)
	}
	if p.logger == nil {
		p.logger = pipeline.LoggerArg(args)
	}
	if p.logger == nil {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		p.logger = logger
	}
	return nil
}

func (p *PeerDebug) Disconnect() error {
	if p.logger != nil {
		_ = p.logger.Sync()
	}
	return nil
}

func init() {
	pipeline.RegisterConnector(pipeline.ConnectorDebug, func() pipeline.Connector { return &PeerDebug{} })
}

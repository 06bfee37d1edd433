// Command plugin_example is a connector built as a Go plugin:
//
//	go build -buildmode=plugin -o example.so ./pkg/pipeline/peer/plugin_example
//
// and loaded with
//
//	plugins:
//	  example: ./example.so
package main

import (
	"encoding/json"

	"github.com/edgeflare/smtconv/pkg/pipeline"
	"go.uber.org/zap"
)

type PeerExample struct {
	logger *zap.Logger
}

func (p *PeerExample) Pub(msg pipeline.Message, _ ...any) error {
	p.logger.Info("example connector plugin publish",
		zap.String("topic", msg.Topic),
		zap.Int("bytes", len(msg.Value)))
	return nil
}

func (p *PeerExample) Connect(config json.RawMessage, args ...any) error {
	p.logger = pipeline.LoggerArg(args)
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.logger.Info("example connector plugin init", zap.ByteString("config", config))
	return nil
}

func (p *PeerExample) Disconnect() error {
	return nil
}

// NewConnector is looked up by pipeline.Manager.RegisterConnectorPlugin.
func NewConnector() pipeline.Connector {
	return &PeerExample{}
}

// main is required for package main; it is unused when built with -buildmode=plugin.
func main() {}

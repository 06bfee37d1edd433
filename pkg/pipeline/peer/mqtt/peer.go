package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edgeflare/smtconv/pkg/pipeline"
)

// PeerMQTT publishes messages to an MQTT broker
type PeerMQTT struct {
	*Client
	Config Config
}

type Config struct {
	Servers     []string `json:"servers"`
	TopicPrefix string   `json:"topicPrefix"`
	// QoS is 0, 1 or 2
	QoS           byte `json:"qos"`
	Retained      bool `json:"retained"`
	ClientOptions `json:"clientOptions"`
}

func (p *PeerMQTT) Connect(config json.RawMessage, args ...any) error {
	if err := json.Unmarshal(config, &p.Config); err != nil {
		return fmt.Errorf("failed to unmarshal MQTT config: %w", err)
	}
	if p.Config.QoS > 2 {
		return fmt.Errorf("invalid MQTT QoS: %d", p.Config.QoS)
	}

	mqttOpts, err := convertToPahoOptions(p.Config.Servers, &p.Config.ClientOptions)
	if err != nil {
		return err
	}
	setDefaultOptions(mqttOpts)

	p.Client = NewClient(mqttOpts, pipeline.LoggerArg(args))
	if err := p.Client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return nil
}

// Topic returns the MQTT topic a record topic is published to.
func (p *PeerMQTT) Topic(topic string) string {
	prefix := strings.TrimRight(p.Config.TopicPrefix, "/")
	if prefix == "" {
		return topic
	}
	return prefix + "/" + topic
}

// Pub publishes the encoded value. MQTT 3.1.1 has no headers, so the key
// and timestamp are not sent.
func (p *PeerMQTT) Pub(msg pipeline.Message, _ ...any) error {
	if p.Client == nil {
		return pipeline.ErrNotConnected
	}
	return p.Client.Publish(p.Topic(msg.Topic), p.Config.QoS, p.Config.Retained, msg.Value)
}

func (p *PeerMQTT) Disconnect() error {
	if p.Client != nil {
		p.Client.Disconnect()
	}
	return nil
}

func init() {
	pipeline.RegisterConnector(pipeline.ConnectorMQTT, func() pipeline.Connector { return &PeerMQTT{} })
}

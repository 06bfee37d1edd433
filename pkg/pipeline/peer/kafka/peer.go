package kafka

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"github.com/edgeflare/smtconv/pkg/pipeline"
	"go.uber.org/zap"
)

// PeerKafka publishes messages to Kafka with a sync producer.
type PeerKafka struct {
	producer sarama.SyncProducer
	config   *Config
	admin    *Client
	logger   *zap.Logger

	// topics already checked by EnsureTopic
	ensured sync.Map
}

// NewWithProducer returns a peer publishing through an existing producer.
// Topics are never created.
func NewWithProducer(producer sarama.SyncProducer, cfg Config, logger *zap.Logger) *PeerKafka {
	cfg.setDefaults()
	cfg.CreateTopics = false
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeerKafka{producer: producer, config: &cfg, logger: logger}
}

func (p *PeerKafka) Connect(config json.RawMessage, args ...any) error {
	var cfg Config
	if err := json.Unmarshal(config, &cfg); err != nil {
		return fmt.Errorf("failed to unmarshal Kafka config: %w", err)
	}
	cfg.setDefaults()

	p.logger = pipeline.LoggerArg(args)
	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	saramaConfig, err := cfg.ToSaramaConfig()
	if err != nil {
		return err
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	p.producer = producer
	p.config = &cfg
	if cfg.CreateTopics {
		p.admin = NewClient(&cfg, p.logger)
	}
	return nil
}

// Topic returns the Kafka topic a record topic is published to.
func (p *PeerKafka) Topic(topic string) string {
	if p.config == nil || p.config.TopicPrefix == "" {
		return topic
	}
	return p.config.TopicPrefix + "." + topic
}

func (p *PeerKafka) Pub(msg pipeline.Message, _ ...any) error {
	if p.producer == nil {
		return pipeline.ErrNotConnected
	}

	topic := p.Topic(msg.Topic)
	if p.admin != nil {
		if _, ok := p.ensured.Load(topic); !ok {
			if err := p.admin.EnsureTopic(topic); err != nil {
				return err
			}
			p.ensured.Store(topic, struct{}{})
		}
	}

	pm := &sarama.ProducerMessage{
		Topic:     topic,
		Timestamp: msg.Timestamp,
	}
	if msg.Key != nil {
		pm.Key = sarama.ByteEncoder(msg.Key)
	}
	// a nil Value stays nil so compacted topics see a tombstone
	if msg.Value != nil {
		pm.Value = sarama.ByteEncoder(msg.Value)
	}

	partition, offset, err := p.producer.SendMessage(pm)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("Published message",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *PeerKafka) Disconnect() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func init() {
	pipeline.RegisterConnector(pipeline.ConnectorKafka, func() pipeline.Connector { return &PeerKafka{} })
}

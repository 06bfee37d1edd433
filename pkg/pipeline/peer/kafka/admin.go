package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Client handles topic administration
type Client struct {
	config *Config
	logger *zap.Logger
}

// NewClient creates a new admin Client
func NewClient(config *Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config: config,
		logger: logger,
	}
}

// newClusterAdmin creates a new sarama.ClusterAdmin
func (c *Client) newClusterAdmin() (sarama.ClusterAdmin, error) {
	saramaConfig, err := c.config.ToSaramaConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create sarama config: %w", err)
	}

	admin, err := sarama.NewClusterAdmin(c.config.GetBrokers(), saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster admin: %w", err)
	}

	return admin, nil
}

// EnsureTopic creates topic with the configured partitions, replicas and
// retention unless it already exists.
func (c *Client) EnsureTopic(topic string) error {
	admin, err := c.newClusterAdmin()
	if err != nil {
		return err
	}
	defer admin.Close()

	topics, err := admin.ListTopics()
	if err != nil {
		return fmt.Errorf("failed to list topics: %w", err)
	}
	if _, exists := topics[topic]; exists {
		return nil
	}

	retention := fmt.Sprintf("%d", c.config.RetentionMS)
	detail := &sarama.TopicDetail{
		NumPartitions:     c.config.Partitions,
		ReplicationFactor: c.config.Replicas,
		ConfigEntries: map[string]*string{
			"retention.ms": &retention,
		},
	}
	if err := admin.CreateTopic(topic, detail, false); err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	c.logger.Info("Topic created", zap.String("topic", topic))
	return nil
}

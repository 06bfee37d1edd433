package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrConnectorNotFound = errors.New("connector not found")
	ErrNotConnected      = errors.New("connector is not connected")
)

// Message is an encoded record ready for publishing. A nil Key means the
// record has no key.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// A Connector publishes messages to one destination (Kafka, NATS, MQTT...).
type Connector interface {
	// Connect initializes the connector with the provided configuration.
	// The config parameter is a raw JSON message containing connector-specific settings.
	// Additional arguments can be passed via the args parameter.
	Connect(config json.RawMessage, args ...any) error

	// Pub sends the given message to the connector's destination.
	// It returns an error if the publish operation fails.
	Pub(msg Message, args ...any) error

	Disconnect() error
}

// Predefined connectors
const (
	ConnectorDebug    = "debug"
	ConnectorKafka    = "kafka"
	ConnectorMQTT     = "mqtt"
	ConnectorNATS     = "nats"
	ConnectorPostgres = "postgres"
)

var (
	connectors   = make(map[string]func() Connector)
	connectorsMu sync.RWMutex
)

// RegisterConnector adds a connector factory to the registry.
// The name parameter is used as a key to identify the connector type; every
// peer gets its own instance.
func RegisterConnector(name string, factory func() Connector) {
	connectorsMu.Lock()
	defer connectorsMu.Unlock()
	connectors[name] = factory
}

// NewConnector returns a fresh, unconnected instance of the named connector.
func NewConnector(name string) (Connector, error) {
	connectorsMu.RLock()
	factory, ok := connectors[name]
	connectorsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConnectorNotFound, name)
	}
	return factory(), nil
}

// Connectors returns the registered connector names, sorted.
func Connectors() []string {
	connectorsMu.RLock()
	defer connectorsMu.RUnlock()
	names := make([]string, 0, len(connectors))
	for name := range connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoggerArg returns the first *zap.Logger in args, or nil. Manager passes
// one to Connect after the peer's own Args.
func LoggerArg(args []any) *zap.Logger {
	for _, a := range args {
		if l, ok := a.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

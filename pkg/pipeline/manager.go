package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"plugin"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Manager owns the connected peers.
type Manager struct {
	mu     sync.RWMutex
	peers  map[string]*Peer
	logger *zap.Logger

	// connectRetries bounds reconnect attempts in Init
	connectRetries uint64
	connectBackoff time.Duration
}

// NewManager returns a new Manager instance.
func NewManager(logger ...*zap.Logger) *Manager {
	m := &Manager{
		peers:          map[string]*Peer{},
		logger:         zap.NewNop(),
		connectRetries: 3,
		connectBackoff: time.Second,
	}
	if len(logger) > 0 && logger[0] != nil {
		m.logger = logger[0]
	}
	return m
}

// RegisterConnectorPlugin loads a connector factory from a Go plugin. The
// plugin must export "NewConnector" as func() pipeline.Connector.
func (m *Manager) RegisterConnectorPlugin(path string, name string) error {
	plug, err := plugin.Open(path)
	if err != nil {
		return err
	}

	symbol, err := plug.Lookup("NewConnector")
	if err != nil {
		return err
	}

	factory, ok := symbol.(func() Connector)
	if !ok {
		return fmt.Errorf("invalid connector plugin %s: NewConnector has type %T", path, symbol)
	}

	RegisterConnector(name, factory)
	m.logger.Info("Registered connector plugin", zap.String("name", name), zap.String("path", path))
	return nil
}

// AddPeer creates a peer with a fresh connector instance.
func (m *Manager) AddPeer(connector string, name string) (*Peer, error) {
	c, err := NewConnector(connector)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.peers[name]; exists {
		return nil, fmt.Errorf("peer %s already exists", name)
	}
	peer := &Peer{ConnectorName: connector, Name: name, connector: c}
	m.peers[name] = peer
	return peer, nil
}

// Peers returns the peers sorted by name.
func (m *Manager) Peers() []*Peer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	peers := make([]*Peer, 0, len(m.peers))
	for _, p := range m.peers {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].Name < peers[j].Name })
	return peers
}

func (m *Manager) GetPeer(name string) (*Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if peer, exists := m.peers[name]; exists {
		return peer, nil
	}
	return nil, fmt.Errorf("peer %s not found", name)
}

// Init registers plugins and connects all peers from configuration. Failed
// connections are retried with exponential backoff.
func (m *Manager) Init(ctx context.Context, config *Config) error {
	for name, path := range config.Plugins {
		if err := m.RegisterConnectorPlugin(path, name); err != nil {
			return fmt.Errorf("failed to load connector plugin %s: %w", name, err)
		}
	}

	m.logger.Info("Initializing pipeline manager", zap.Int("peerCount", len(config.Peers)))
	for _, p := range config.Peers {
		m.logger.Debug("Adding peer",
			zap.String("name", p.Name),
			zap.String("connector", p.ConnectorName))

		peer, err := m.AddPeer(p.ConnectorName, p.Name)
		if err != nil {
			m.logger.Error("Failed to add peer",
				zap.String("name", p.Name),
				zap.String("connector", p.ConnectorName),
				zap.Error(err))
			return fmt.Errorf("failed to add peer %s: %w", p.Name, err)
		}

		// Store the config in the peer
		peer.Config = p.Config
		peer.Args = p.Args
		configJSON, err := json.Marshal(peer.Config)
		if err != nil {
			m.logger.Error("Failed to marshal config for peer",
				zap.String("name", peer.Name),
				zap.Error(err))
			return fmt.Errorf("failed to marshal config for peer %s: %w", peer.Name, err)
		}

		m.logger.Debug("Connecting peer",
			zap.String("name", peer.Name),
			zap.String("connector", p.ConnectorName))

		if err := m.connect(ctx, peer, configJSON); err != nil {
			m.logger.Error("Failed to initialize connector after retries",
				zap.String("name", peer.Name),
				zap.Error(err))
			return fmt.Errorf("failed to initialize connector %s: %w", peer.Name, err)
		}

		m.logger.Info("Successfully connected peer",
			zap.String("name", peer.Name),
			zap.String("connector", p.ConnectorName))
	}

	m.logger.Info("Successfully initialized all peers", zap.Int("totalPeers", len(m.peers)))
	return nil
}

func (m *Manager) connect(ctx context.Context, peer *Peer, config []byte) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.connectBackoff

	args := append(append([]any{}, peer.Args...), m.logger.With(zap.String("peer", peer.Name)))
	operation := func() error {
		return peer.connector.Connect(json.RawMessage(config), args...)
	}
	notify := func(err error, delay time.Duration) {
		m.logger.Warn("Retrying connection",
			zap.String("name", peer.Name),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	return backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, m.connectRetries), ctx), notify)
}

// Close disconnects every peer.
func (m *Manager) Close() error {
	var errs []error
	for _, peer := range m.Peers() {
		if err := peer.connector.Disconnect(); err != nil {
			m.logger.Warn("Failed to disconnect peer", zap.String("name", peer.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("disconnect %s: %w", peer.Name, err))
		}
	}
	return errors.Join(errs...)
}

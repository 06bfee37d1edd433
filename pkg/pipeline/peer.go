package pipeline

// Peer is a destination with an associated connector (ie NATS, Kafka, MQTT, Postgres, etc).
type Peer struct {
	Name          string `mapstructure:"name"`
	ConnectorName string `mapstructure:"connector"`
	// Config contains the connection config of underlying library
	// eg github.com/IBM/sarama.Config, github.com/eclipse/paho.mqtt.golang.ClientOptions etc
	Config map[string]any `mapstructure:"config"`
	// Extra arguments for Connect and Pub
	Args []any `mapstructure:"-"`

	connector Connector
}

// Connector returns the peer's connector instance, nil before Manager.AddPeer.
func (p *Peer) Connector() Connector {
	return p.connector
}

// Config lists the peers a Manager connects.
type Config struct {
	Peers []Peer `mapstructure:"peers"`
	// Plugins maps connector names to Go plugin files exporting a
	// "NewConnector" func() pipeline.Connector.
	Plugins map[string]string `mapstructure:"plugins"`
}

func (c *Config) GetPeer(peerName string) *Peer {
	for _, peer := range c.Peers {
		if peer.Name == peerName {
			return &peer
		}
	}
	return nil
}

// Package pipeline publishes converter output to `Peer`s (ie message
// destinations).
//
// Supported peer types include Kafka, NATS, MQTT, PostgreSQL and a debug
// logger, with extensibility through Go plugins. Every peer type implements
// the `Connector` interface and registers a factory with RegisterConnector.
//
// A Producer runs each record through a key and a value converter and hands
// the encoded message to its sink peers.
package pipeline

// Package mqtt provides an MQTT sink for encoded records.
//
// Records are published to `<topicPrefix>/<topic>` with the configured QoS
// and retain flag; the topic is used verbatim when no prefix is set.
//
// Example:
//
//	mosquitto_sub -t 'smtconv/#' -v
//
// Broker address and credentials fall back to SMTCONV_MQTT_BROKER,
// SMTCONV_MQTT_USERNAME and SMTCONV_MQTT_PASSWORD. The client ID defaults
// to smtconv-<uuid>.
package mqtt

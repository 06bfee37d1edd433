// Package kafka provides a Kafka sink for encoded records.
//
// Each message is published with a sarama SyncProducer to the record's topic
// after transformation, prefixed as "<topicPrefix>.<topic>" when a prefix is
// configured. The encoded key becomes the Kafka message key, so the default
// hash partitioner keeps records with the same key on one partition.
//
// Kafka topic naming conventions:
// - Case-sensitive, no spaces
// - Valid chars: alphanumeric, `.`, `-`, `_`
// - Recommended max length: 249 bytes
//
// Configuration (peer config, JSON):
//
//	brokers: ["localhost:9092"]
//	topicPrefix: smtconv
//	version: 2.1.1
//	partitioner: hash | random | roundrobin
//	compression: none | gzip | snappy | lz4 | zstd
//	sasl: {enable: true, username: u, password: p, algorithm: sha512}
//	tls: {enable: true, caFile: /etc/ssl/ca.pem}
//	createTopics: true
//	partitions: 3
//	replicas: 2
//	retentionMs: 604800000
//
// With createTopics set, missing topics are created on first publish through
// a sarama ClusterAdmin.
package kafka

// Package nats provides a NATS sink for encoded records.
//
// NATS subject (aka topic) patterns:
//   - Case-sensitive, dot-separated, no spaces
//   - Valid chars: alphanumeric, `-` or `_`
//   - Max length: 255 bytes
//
// A record with topic shop.orders is published to `<subjectPrefix>.shop.orders`.
// By default messages go through JetStream into a stream capturing
// `<subjectPrefix>.>`, which is created or updated on Connect. Set
// disableJetStream to publish with core NATS instead.
//
// The encoded value is the message payload. Keys and timestamps travel as
// headers:
//
//	Smtconv-Key:       base64 of the encoded key
//	Smtconv-Timestamp: 2024-01-02T15:04:05.123Z
package nats

// Package transform provides the built-in record transformations. It's
// inspired by Kafka Connect's [Single Message Transformations (SMTs)](https://docs.confluent.io/platform/current/connect/transforms/overview.html).
//
// Every transformation registers itself with the default converter registry
// under its type name (extract, filter, replace, insert, case, drop) and
// declares its options as a configdef schema.
package transform

// Package connect holds the minimal record model shared by transformations
// and serializers: a topic, an optional schema and a value.
package connect

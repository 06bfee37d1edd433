// Package serializer provides the built-in delegate serializers used by the
// converter: string, bytes, json, protobuf and registry (Confluent wire
// format backed by a schema registry).
//
// Each serializer registers itself with the default converter registry and
// rejects options it does not know.
package serializer

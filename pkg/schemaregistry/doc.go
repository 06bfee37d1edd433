// Package schemaregistry is a small client for the Confluent Schema Registry
// REST API plus helpers for its wire format.
//
// A Registry is the dependency shared between serializers that look up or
// register schemas. Hosts usually create one Client and hand it to every
// converter; tests use Mock.
//
//	registry, err := schemaregistry.NewClient(schemaregistry.Config{
//	    URL:        "http://localhost:8081",
//	    Timeout:    10 * time.Second,
//	    MaxRetries: 3,
//	})
package schemaregistry

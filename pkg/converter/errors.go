package converter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPluginType is returned when a type identifier is not
	// registered or names a plugin of the wrong kind.
	ErrInvalidPluginType = errors.New("invalid plugin type")
	// ErrMissingConfigSchema is returned when a transformation is registered
	// without a config schema.
	ErrMissingConfigSchema = errors.New("transformation has no config schema")
	// ErrPluginInstantiation marks every failure to construct or configure a plugin.
	ErrPluginInstantiation = errors.New("plugin instantiation failed")
	// ErrUnsupportedOperation is returned by Decode; the converter is write-only.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrNotConfigured is returned when Encode is called before a successful Configure.
	ErrNotConfigured = errors.New("converter is not configured")
	// ErrAlreadyConfigured is returned by a second Configure call.
	ErrAlreadyConfigured = errors.New("converter is already configured")
	// ErrNilRecord is returned by EncodeRecord when given no record.
	ErrNilRecord = errors.New("nil record")
)

// InstantiationError wraps a failure to resolve, construct or configure a
// plugin. It matches ErrPluginInstantiation and its cause with errors.Is.
type InstantiationError struct {
	// Role is "converter" for the delegate serializer or the stage alias.
	Role string
	Type string
	Err  error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("failed instantiating %s (type %q): %v", e.Role, e.Type, e.Err)
}

func (e *InstantiationError) Unwrap() []error {
	return []error{ErrPluginInstantiation, e.Err}
}

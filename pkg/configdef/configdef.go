package configdef

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Props is a flat set of configuration properties as supplied by a host.
// Values are usually strings but typed values (lists, numbers, booleans)
// coming from structured config files are accepted too.
type Props map[string]any

// WithPrefix returns the properties under prefix with the prefix stripped.
func (p Props) WithPrefix(prefix string) Props {
	out := Props{}
	for k, v := range p {
		if strings.HasPrefix(k, prefix) {
			out[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return out
}

// Importance is a documentation hint.
type Importance int

const (
	ImportanceHigh Importance = iota
	ImportanceMedium
	ImportanceLow
)

func (i Importance) String() string {
	switch i {
	case ImportanceHigh:
		return "high"
	case ImportanceMedium:
		return "medium"
	default:
		return "low"
	}
}

// Validator checks an already parsed value.
type Validator interface {
	Validate(name string, value any) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(name string, value any) error

func (f ValidatorFunc) Validate(name string, value any) error { return f(name, value) }

// Key describes one recognized option.
type Key struct {
	Name string
	Type Type
	// Default is used when the option is absent. A Key without a default is
	// required unless Optional is set.
	Default      any
	HasDefault   bool
	Optional     bool
	Validator    Validator
	Importance   Importance
	Doc          string
	Group        string
	OrderInGroup int
	DisplayName  string
}

// Required reports whether the option must be supplied.
func (k Key) Required() bool {
	return !k.HasDefault && !k.Optional
}

// ConfigDef is a set of option descriptors. The zero value is not usable;
// use New.
type ConfigDef struct {
	keys     map[string]Key
	order    []string
	prefixes []string
}

// New returns an empty ConfigDef.
func New() *ConfigDef {
	return &ConfigDef{keys: map[string]Key{}}
}

// Copy returns an independent ConfigDef with the same keys and open prefixes.
func (d *ConfigDef) Copy() *ConfigDef {
	out := &ConfigDef{
		keys:     make(map[string]Key, len(d.keys)),
		order:    append([]string(nil), d.order...),
		prefixes: append([]string(nil), d.prefixes...),
	}
	for name, k := range d.keys {
		out.keys[name] = k
	}
	return out
}

// Define registers k.
func (d *ConfigDef) Define(k Key) error {
	if k.Name == "" {
		return newError(ErrInvalidValue, k.Name, nil, "option name must not be empty")
	}
	if _, exists := d.keys[k.Name]; exists {
		return newError(ErrDuplicateOption, k.Name, nil, "option is already defined")
	}
	if k.HasDefault && k.Default != nil {
		parsed, err := ParseType(k.Name, k.Default, k.Type)
		if err != nil {
			return fmt.Errorf("invalid default: %w", err)
		}
		k.Default = parsed
	}
	d.keys[k.Name] = k
	d.order = append(d.order, k.Name)
	return nil
}

// MustDefine is Define for package-level definitions; it panics on error.
func (d *ConfigDef) MustDefine(k Key) *ConfigDef {
	if err := d.Define(k); err != nil {
		panic(err)
	}
	return d
}

// AllowPrefix lets keys under prefix pass Parse without being defined.
func (d *ConfigDef) AllowPrefix(prefix string) *ConfigDef {
	d.prefixes = append(d.prefixes, prefix)
	return d
}

// Embed adds every key of child under prefix. Validators receive the
// namespaced name. Collisions fail with ErrDuplicateOption and leave d
// unchanged.
func (d *ConfigDef) Embed(prefix, group string, startOrder int, child *ConfigDef) error {
	if child == nil {
		return fmt.Errorf("embed %q: nil config def", prefix)
	}
	staged := make([]Key, 0, len(child.order))
	for i, name := range child.order {
		k := child.keys[name]
		k.Name = prefix + name
		if _, exists := d.keys[k.Name]; exists {
			return newError(ErrDuplicateOption, k.Name, nil, "embedded option collides with an existing option")
		}
		if group != "" {
			k.Group = group
		}
		k.OrderInGroup = startOrder + i
		staged = append(staged, k)
	}
	for _, k := range staged {
		d.keys[k.Name] = k
		d.order = append(d.order, k.Name)
	}
	for _, p := range child.prefixes {
		d.prefixes = append(d.prefixes, prefix+p)
	}
	return nil
}

// Lookup returns the descriptor for name.
func (d *ConfigDef) Lookup(name string) (Key, bool) {
	k, ok := d.keys[name]
	return k, ok
}

// Names returns option names in definition order.
func (d *ConfigDef) Names() []string {
	return append([]string(nil), d.order...)
}

// Keys returns descriptors sorted by group then order in group, preserving
// definition order for ties.
func (d *ConfigDef) Keys() []Key {
	out := make([]Key, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.keys[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].OrderInGroup < out[j].OrderInGroup
	})
	return out
}

func (d *ConfigDef) open(name string) bool {
	for _, p := range d.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Parse validates props against d and returns the coerced values, with
// defaults filled in. Keys under an open prefix are passed through
// unchanged. All problems are reported together.
func (d *ConfigDef) Parse(props Props) (Values, error) {
	values := Values{}
	var errs []error

	for name, raw := range props {
		if _, defined := d.keys[name]; defined {
			continue
		}
		if d.open(name) {
			values[name] = raw
			continue
		}
		errs = append(errs, newError(ErrUnknownOption, name, nil, ""))
	}

	for _, name := range d.order {
		k := d.keys[name]
		raw, present := props[name]
		if !present || raw == nil {
			switch {
			case k.HasDefault:
				values[name] = k.Default
			case k.Optional:
			default:
				errs = append(errs, newError(ErrMissingRequired, name, nil, "no default value"))
			}
			continue
		}

		v, err := ParseType(name, raw, k.Type)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if k.Validator != nil {
			if err := k.Validator.Validate(name, v); err != nil {
				errs = append(errs, asConfigError(name, v, err))
				continue
			}
		}
		values[name] = v
	}

	if len(errs) > 0 {
		sort.SliceStable(errs, func(i, j int) bool {
			return errorName(errs[i]) < errorName(errs[j])
		})
		return nil, errors.Join(errs...)
	}
	return values, nil
}

// asConfigError keeps validator errors that already carry a kind, and
// classifies everything else as ErrInvalidValue.
func asConfigError(name string, value any, err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: ErrInvalidValue, Name: name, Value: value, Err: err}
}

func errorName(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Name
	}
	return ""
}

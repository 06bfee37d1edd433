package converter

import (
	"fmt"

	"github.com/edgeflare/smtconv/pkg/configdef"
)

const (
	ConverterConfig  = "converter"
	TransformsConfig = "transforms"

	converterPrefix = ConverterConfig + "."
	transformsGroup = "transforms"
	typeSuffix      = "type"
)

// BaseConfigDef declares the options every converter understands. It is
// shared and must not be modified; Compose works on a copy.
var BaseConfigDef = configdef.New().
	MustDefine(configdef.Key{
		Name:       ConverterConfig,
		Type:       configdef.TypePlugin,
		Importance: configdef.ImportanceHigh,
		Doc:        "Underlying serializer",
	}).
	MustDefine(configdef.Key{
		Name:       TransformsConfig,
		Type:       configdef.TypeList,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "Aliases for the transformations to apply to records, in order",
	}).
	AllowPrefix(converterPrefix)

// StagePrefix returns the configuration namespace of a transformation alias.
func StagePrefix(alias string) string {
	return TransformsConfig + "." + alias + "."
}

// Aliases removes duplicates from aliases, keeping first occurrences in order.
func Aliases(aliases []string) []string {
	seen := make(map[string]struct{}, len(aliases))
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Compose extends base with the options of every transformation named in
// props: a required "transforms.<alias>.type" key per alias plus the
// transformation's own schema embedded under "transforms.<alias>.".
// When props lists no transformations base itself is returned.
func Compose(base *configdef.ConfigDef, props configdef.Props, registry *Registry) (*configdef.ConfigDef, error) {
	raw, ok := props[TransformsConfig]
	if !ok || raw == nil {
		return base, nil
	}

	parsed, err := configdef.ParseType(TransformsConfig, raw, configdef.TypeList)
	if err != nil {
		return nil, err
	}
	aliases := Aliases(parsed.([]string))
	if len(aliases) == 0 {
		return base, nil
	}

	def := base.Copy()
	for _, alias := range aliases {
		if alias == "" {
			return nil, &configdef.Error{
				Kind:   configdef.ErrInvalidValue,
				Name:   TransformsConfig,
				Value:  raw,
				Reason: "transformation alias must not be empty",
			}
		}

		prefix := StagePrefix(alias)
		group := transformsGroup + ": " + alias
		typeKey := prefix + typeSuffix

		err := def.Define(configdef.Key{
			Name:       typeKey,
			Type:       configdef.TypePlugin,
			Importance: configdef.ImportanceHigh,
			Validator: configdef.ValidatorFunc(func(name string, value any) error {
				typeName, _ := value.(string)
				_, err := transformationSchema(registry, name, typeName)
				return err
			}),
			Doc:          fmt.Sprintf("Type of the '%s' transformation.", alias),
			Group:        group,
			OrderInGroup: 0,
			DisplayName:  "Transformation type for " + alias,
		})
		if err != nil {
			return nil, err
		}

		rawType, present := props[typeKey]
		if !present || rawType == nil {
			// Parse reports the missing type.
			continue
		}
		typeName, err := configdef.ParseType(typeKey, rawType, configdef.TypePlugin)
		if err != nil {
			return nil, err
		}
		schema, err := transformationSchema(registry, typeKey, typeName.(string))
		if err != nil {
			return nil, err
		}
		if err := def.Embed(prefix, group, 1, schema); err != nil {
			return nil, err
		}
	}

	return def, nil
}

func transformationSchema(registry *Registry, key, typeName string) (*configdef.ConfigDef, error) {
	p, err := registry.Lookup(typeName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if p.Kind != KindTransformation {
		return nil, fmt.Errorf("%s: %q is a %s, not a transformation: %w", key, typeName, p.Kind, ErrInvalidPluginType)
	}
	if p.Schema == nil {
		return nil, fmt.Errorf("%s: %q: %w", key, typeName, ErrMissingConfigSchema)
	}
	return p.Schema, nil
}

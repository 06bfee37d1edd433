package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/pipeline"
	"github.com/edgeflare/smtconv/pkg/schemaregistry"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X github.com/edgeflare/smtconv/pkg/config.Version=..."
var Version = "dev"

// KeyDelimiter separates nested keys. Converter property names contain
// dots, so viper's default delimiter would split them.
const KeyDelimiter = "::"

// Config holds application-wide configuration
type Config struct {
	// Key and Value are the flat converter properties, e.g.
	// {"converter": "json", "transforms": "route", "transforms.route.type": "replace"}.
	// Nested maps are flattened with dots.
	Key   configdef.Props `mapstructure:"key"`
	Value configdef.Props `mapstructure:"value"`

	SchemaRegistry SchemaRegistryConfig `mapstructure:"schemaRegistry"`
	Pipeline       pipeline.Config      `mapstructure:"pipeline"`
	// Sinks names the peers records are published to; all peers when empty
	Sinks   []string      `mapstructure:"sinks"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// File is the config file used, empty if none was found
	File string `mapstructure:"-"`
}

type SchemaRegistryConfig struct {
	schemaregistry.Config `mapstructure:",squash"`
	// Mock uses an in-memory registry, for dry runs
	Mock bool `mapstructure:"mock"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("metrics::enabled", false)
	v.SetDefault("metrics::addr", ":9100")
	v.SetDefault("schemaRegistry::timeout", 10*time.Second)
	v.SetDefault("schemaRegistry::maxRetries", 3)
}

// Load reads config from file or environment. Environment variables use
// the SMTCONV_ prefix with nested keys joined by underscores, e.g.
// SMTCONV_METRICS_ADDR.
func Load(cfgFile string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(KeyDelimiter))
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("smtconv")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SMTCONV")
	v.SetEnvKeyReplacer(strings.NewReplacer(KeyDelimiter, "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Key = Flatten(cfg.Key)
	cfg.Value = Flatten(cfg.Value)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks references between sections. Converter properties are
// validated by the converters themselves.
func (c *Config) Validate() error {
	var errs []error
	seen := map[string]bool{}
	for _, p := range c.Pipeline.Peers {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("peer with connector %q has no name", p.ConnectorName))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("duplicate peer %s", p.Name))
		}
		seen[p.Name] = true
	}
	for _, s := range c.Sinks {
		if c.Pipeline.GetPeer(s) == nil {
			errs = append(errs, fmt.Errorf("sink %s is not a configured peer", s))
		}
	}
	return errors.Join(errs...)
}

// SinkNames returns Sinks, or every peer name when Sinks is empty.
func (c *Config) SinkNames() []string {
	if len(c.Sinks) > 0 {
		return c.Sinks
	}
	names := make([]string, 0, len(c.Pipeline.Peers))
	for _, p := range c.Pipeline.Peers {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// Registry returns the shared schema registry, or nil when none is configured.
func (c SchemaRegistryConfig) Registry(logger *zap.Logger) (schemaregistry.Registry, error) {
	switch {
	case c.Mock:
		return schemaregistry.NewMock(), nil
	case c.URL != "":
		return schemaregistry.NewClient(c.Config, logger)
	default:
		return nil, nil
	}
}

// Flatten joins nested map keys with dots so that
//
//	transforms: {route: {type: replace}}
//
// and
//
//	transforms.route.type: replace
//
// yield the same properties. Map keys carry no order, so the "transforms"
// list itself is never derived from nested aliases and must be set
// explicitly.
func Flatten(props map[string]any) configdef.Props {
	if props == nil {
		return nil
	}
	out := make(configdef.Props, len(props))
	flatten("", props, out)
	return out
}

func flatten(prefix string, in map[string]any, out configdef.Props) {
	for k, v := range in {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch nested := v.(type) {
		case map[string]any:
			flatten(name, nested, out)
		case configdef.Props:
			flatten(name, nested, out)
		default:
			out[name] = v
		}
	}
}

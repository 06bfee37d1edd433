package main

import (
	"fmt"
	"strings"

	"github.com/edgeflare/smtconv/pkg/config"
	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/converter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	// Register built-in plugins and connectors
	_ "github.com/edgeflare/smtconv/pkg/pipeline/peer/debug"
	_ "github.com/edgeflare/smtconv/pkg/pipeline/peer/kafka"
	_ "github.com/edgeflare/smtconv/pkg/pipeline/peer/mqtt"
	_ "github.com/edgeflare/smtconv/pkg/pipeline/peer/nats"
	_ "github.com/edgeflare/smtconv/pkg/pipeline/peer/pg"
	_ "github.com/edgeflare/smtconv/pkg/serializer"
	_ "github.com/edgeflare/smtconv/pkg/transform"
)

// app carries state shared by subcommands after the config is loaded.
type app struct {
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "smtconv",
		Short: "smtconv encodes records through a chain of transformations",
		Long: `smtconv runs records through a configured chain of single message
transformations and serializes the result with a delegate serializer.
Encoded records can be printed or published to Kafka, NATS, MQTT and PostgreSQL peers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			versionFlag, _ := cmd.Flags().GetBool("version")
			if versionFlag {
				fmt.Fprintln(cmd.OutOrStdout(), config.Version)
				return nil
			}

			// If no subcommand is provided, print help
			return cmd.Help()
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/smtconv.yaml)")
	f.StringVarP(&a.logLevel, "log-level", "L", "info", "log at this level (debug, info, warn, error, none)")
	rootCmd.Flags().BoolP("version", "v", false, "Print the version number")

	rootCmd.AddCommand(newEncodeCmd(a), newProduceCmd(a), newPluginsCmd(a))
	return rootCmd
}

func (a *app) init() error {
	logger, err := newLogger(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = logger

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	a.cfg = cfg
	if cfg.File != "" {
		logger.Debug("Using config file", zap.String("file", cfg.File))
	}
	return nil
}

// newLogger returns a production logger writing to stderr, so that encoded
// output on stdout stays clean.
func newLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "none") {
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// converters builds and configures the key and value converters. The key
// converter is nil when no key properties are configured.
func (a *app) converters() (key, value *converter.Converter, err error) {
	if len(a.cfg.Value) == 0 {
		return nil, nil, fmt.Errorf("value converter is not configured")
	}

	registry, err := a.cfg.SchemaRegistry.Registry(a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create schema registry client: %w", err)
	}

	build := func(props configdef.Props, isKey bool) (*converter.Converter, error) {
		opts := []converter.Option{converter.WithLogger(a.logger)}
		if registry != nil {
			opts = append(opts, converter.WithSchemaRegistry(registry))
		}
		c := converter.New(opts...)
		if err := c.Configure(props, isKey); err != nil {
			return nil, err
		}
		return c, nil
	}

	if value, err = build(a.cfg.Value, false); err != nil {
		return nil, nil, fmt.Errorf("value converter: %w", err)
	}
	if len(a.cfg.Key) > 0 {
		if key, err = build(a.cfg.Key, true); err != nil {
			_ = value.Close()
			return nil, nil, fmt.Errorf("key converter: %w", err)
		}
	}
	return key, value, nil
}

func closeConverters(cs ...*converter.Converter) {
	for _, c := range cs {
		if c != nil {
			_ = c.Close()
		}
	}
}

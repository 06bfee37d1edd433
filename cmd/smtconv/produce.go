package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/edgeflare/smtconv/pkg/metrics"
	"github.com/edgeflare/smtconv/pkg/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newProduceCmd(a *app) *cobra.Command {
	var (
		input             string
		prometheusEnabled bool
		prometheusAddr    string
	)

	cmd := &cobra.Command{
		Use:     "produce",
		Aliases: []string{"p"},
		Short:   "Encode JSON records and publish them to the configured peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("metrics") {
				a.cfg.Metrics.Enabled = prometheusEnabled
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.Metrics.Addr = prometheusAddr
			}
			return a.produce(cmd.Context(), input, cmd.InOrStdin())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "read records from this file instead of stdin")
	f.BoolVar(&prometheusEnabled, "metrics", false, "Enable Prometheus metrics server")
	f.StringVar(&prometheusAddr, "metrics-addr", ":9100", "Prometheus metrics server address")
	return cmd
}

func (a *app) produce(ctx context.Context, input string, stdin io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if a.cfg.Metrics.Enabled {
		metrics.StartPrometheusServer(ctx, &wg, &metrics.PromServerOpts{Addr: a.cfg.Metrics.Addr, Logger: a.logger})
	}

	m := pipeline.NewManager(a.logger)
	defer func() {
		if err := m.Close(); err != nil {
			a.logger.Warn("Failed to disconnect peers", zap.Error(err))
		}
	}()
	if err := m.Init(ctx, &a.cfg.Pipeline); err != nil {
		return fmt.Errorf("failed to initialize peers: %w", err)
	}

	key, value, err := a.converters()
	if err != nil {
		return err
	}
	defer closeConverters(key, value)

	sinks := a.cfg.SinkNames()
	if len(sinks) == 0 {
		return fmt.Errorf("no peers configured")
	}
	p, err := pipeline.NewProducer(m, key, value, sinks, a.logger)
	if err != nil {
		return err
	}

	r, err := openInput(input, stdin)
	if err != nil {
		return err
	}
	defer r.Close()

	inputs := make(chan pipeline.Input, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx, inputs)
	}()

	readErr := readInputs(r, func(in pipeline.Input) error {
		select {
		case inputs <- in:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(inputs)
	<-done

	cancel()
	waitTimeout(&wg, 10*time.Second, a.logger)
	return readErr
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration, logger *zap.Logger) {
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Debug("Shutdown complete")
	case <-time.After(timeout):
		logger.Warn("Shutdown timed out", zap.Duration("timeout", timeout))
	}
}

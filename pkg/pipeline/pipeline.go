package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
	"github.com/edgeflare/smtconv/pkg/metrics"
	"go.uber.org/zap"
)

// Input is an unencoded record handed to a Producer.
type Input struct {
	Topic       string
	Key         any
	KeySchema   *connect.Schema
	Value       any
	ValueSchema *connect.Schema
	// Timestamp defaults to the time of encoding
	Timestamp time.Time
}

// Producer encodes inputs with its key and value converters and publishes
// the result to every sink peer.
type Producer struct {
	// Key may be nil, in which case messages carry no key.
	Key   *converter.Converter
	Value *converter.Converter
	Sinks []*Peer

	logger *zap.Logger
}

// NewProducer resolves sink names against m.
func NewProducer(m *Manager, key, value *converter.Converter, sinks []string, logger ...*zap.Logger) (*Producer, error) {
	if value == nil {
		return nil, errors.New("value converter is required")
	}
	p := &Producer{Key: key, Value: value, logger: zap.NewNop()}
	if len(logger) > 0 && logger[0] != nil {
		p.logger = logger[0]
	}
	for _, name := range sinks {
		peer, err := m.GetPeer(name)
		if err != nil {
			return nil, fmt.Errorf("sink peer %s not found: %w", name, err)
		}
		p.Sinks = append(p.Sinks, peer)
	}
	return p, nil
}

// Encode converts in into a message. A nil message with a nil error means
// the value converter dropped the record. The message topic is the value
// record's topic after transformation.
func (p *Producer) Encode(in Input) (*Message, error) {
	rec := connect.NewRecord(in.Topic, in.ValueSchema, in.Value)
	if !in.Timestamp.IsZero() {
		rec.Timestamp = in.Timestamp
	}
	rec, value, err := p.Value.EncodeRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	var key []byte
	if p.Key != nil && in.Key != nil {
		if key, err = p.Key.Encode(in.Topic, in.KeySchema, in.Key); err != nil {
			return nil, fmt.Errorf("encode key: %w", err)
		}
	}

	return &Message{Topic: rec.Topic, Key: key, Value: value, Timestamp: rec.Timestamp}, nil
}

// Send encodes in and publishes it to every sink. Dropped records are not
// published. Publish errors of all sinks are joined.
func (p *Producer) Send(ctx context.Context, in Input) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := p.Encode(in)
	if err != nil {
		return err
	}
	if msg == nil {
		p.logger.Debug("Record dropped, nothing to publish", zap.String("topic", in.Topic))
		return nil
	}

	var errs []error
	for _, sink := range p.Sinks {
		if err := sink.Connector().Pub(*msg, sink.Args...); err != nil {
			metrics.PublishErrors.WithLabelValues(sink.Name).Inc()
			p.logger.Error("Publish error",
				zap.String("sink", sink.Name),
				zap.String("topic", msg.Topic),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("publish to %s: %w", sink.Name, err))
			continue
		}
		metrics.PublishedMessages.WithLabelValues(sink.Name).Inc()
	}
	return errors.Join(errs...)
}

// Run sends inputs until the channel is closed or ctx is done. Errors are
// logged and counted; they do not stop the loop.
func (p *Producer) Run(ctx context.Context, inputs <-chan Input) {
	for {
		select {
		case in, ok := <-inputs:
			if !ok {
				return
			}
			if err := p.Send(ctx, in); err != nil {
				p.logger.Warn("Failed to send record", zap.String("topic", in.Topic), zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

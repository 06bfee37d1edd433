package pg

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edgeflare/smtconv/pkg/pipeline"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PeerPG appends messages to a PostgreSQL table.
type PeerPG struct {
	pool   *pgxpool.Pool
	db     Execer
	cfg    Config
	insert string
	logger *zap.Logger
}

type Config struct {
	ConnString string `json:"connString"`
	Schema     string `json:"schema"`
	Table      string `json:"table"`
	// ValueType is bytea (default) or jsonb
	ValueType string `json:"valueType"`
	// SkipCreateTable disables CREATE TABLE IF NOT EXISTS on Connect
	SkipCreateTable bool `json:"skipCreateTable"`
	// Timeout bounds each statement; defaults to 5s
	Timeout time.Duration `json:"timeout"`
}

func (c *Config) setDefaults() error {
	c.Schema = cmp.Or(c.Schema, "public")
	c.Table = cmp.Or(c.Table, "smtconv_messages")
	c.ValueType = cmp.Or(c.ValueType, "bytea")
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	switch c.ValueType {
	case "bytea", "jsonb":
		return nil
	default:
		return fmt.Errorf("invalid value type %q, want bytea or jsonb", c.ValueType)
	}
}

// New returns a peer writing through db with cfg. It does not create the table.
func New(db Execer, cfg Config, logger *zap.Logger) (*PeerPG, error) {
	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &PeerPG{db: db, cfg: cfg, logger: logger}
	p.insert = insertSQL(cfg)
	return p, nil
}

func (p *PeerPG) Connect(config json.RawMessage, args ...any) error {
	if err := json.Unmarshal(config, &p.cfg); err != nil {
		return fmt.Errorf("config parse: %w", err)
	}
	if err := p.cfg.setDefaults(); err != nil {
		return err
	}
	p.logger = pipeline.LoggerArg(args)
	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, p.cfg.ConnString)
	if err != nil {
		return err
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("error connecting to database: %w", err)
	}

	if !p.cfg.SkipCreateTable {
		if _, err := pool.Exec(ctx, createTableSQL(p.cfg)); err != nil {
			pool.Close()
			return fmt.Errorf("failed to create table: %w", err)
		}
		p.logger.Info("Ensured message table",
			zap.String("schema", p.cfg.Schema),
			zap.String("table", p.cfg.Table))
	}

	p.pool = pool
	p.db = pool
	p.insert = insertSQL(p.cfg)
	return nil
}

func tableIdent(cfg Config) string {
	return pgx.Identifier{cfg.Schema, cfg.Table}.Sanitize()
}

func createTableSQL(cfg Config) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	topic TEXT NOT NULL,
	key BYTEA,
	value %s,
	ts TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, tableIdent(cfg), cfg.ValueType)
}

func insertSQL(cfg Config) string {
	return fmt.Sprintf("INSERT INTO %s (topic, key, value, ts) VALUES ($1, $2, $3, $4)", tableIdent(cfg))
}

func (p *PeerPG) Pub(msg pipeline.Message, _ ...any) error {
	if p.db == nil {
		return pipeline.ErrNotConnected
	}

	var value any = msg.Value
	if msg.Value != nil && p.cfg.ValueType == "jsonb" {
		if !json.Valid(msg.Value) {
			return fmt.Errorf("value for topic %s is not valid JSON", msg.Topic)
		}
		value = string(msg.Value)
	}

	var ts *time.Time
	if !msg.Timestamp.IsZero() {
		ts = &msg.Timestamp
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()
	if _, err := p.db.Exec(ctx, p.insert, msg.Topic, msg.Key, value, ts); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	p.logger.Debug("Inserted message", zap.String("topic", msg.Topic))
	return nil
}

func (p *PeerPG) Disconnect() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func init() {
	pipeline.RegisterConnector(pipeline.ConnectorPostgres, func() pipeline.Connector { return &PeerPG{} })
}

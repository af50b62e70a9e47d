package connector

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Konsultn-Engineering/morph/database"
	"github.com/Konsultn-Engineering/morph/dialect"
)

func init() {
	RegisterProvider("postgres", postgresProvider{})
}

type postgresProvider struct{}

func (postgresProvider) Dialect() dialect.Dialect { return dialect.NewPostgresDialect() }

func (p postgresProvider) Connect(ctx context.Context, cfg Config) (Connection, error) {
	cfg = cfg.withDefaults()
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("connector: invalid postgres config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Pool.MaxOpen)
	poolCfg.MinConns = int32(cfg.Pool.MaxIdle)
	poolCfg.MaxConnLifetime = cfg.Pool.MaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Pool.MaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connector: postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connector: postgres ping: %w", err)
	}

	return &postgresConnection{
		pool:    pool,
		db:      database.NewPgxDatabase(pool),
		dialect: p.Dialect(),
	}, nil
}

func buildPostgresDSN(cfg Config) (string, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	b := NewDSNBuilder("postgres").
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", sslMode).
		Params(cfg.Params)
	if cfg.ConnectTimeout > 0 {
		b.Param("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	}
	return b.Build()
}

type postgresConnection struct {
	pool    *pgxpool.Pool
	db      *database.PgxDatabase
	dialect dialect.Dialect
}

func (c *postgresConnection) DB() database.Database    { return c.db }
func (c *postgresConnection) Dialect() dialect.Dialect { return c.dialect }

func (c *postgresConnection) Health(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *postgresConnection) Stats() Stats {
	s := c.pool.Stat()
	return Stats{
		Open:    int(s.TotalConns()),
		Idle:    int(s.IdleConns()),
		InUse:   int(s.AcquiredConns()),
		MaxOpen: int(s.MaxConns()),
	}
}

func (c *postgresConnection) Close() error {
	c.pool.Close()
	return nil
}

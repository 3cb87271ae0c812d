package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the shared connection pool from databaseURL.
func InitDB(ctx context.Context, databaseURL string) error {
	var err error
	once.Do(func() {
		pool, err = Open(ctx, databaseURL)
	})
	return err
}

// Open creates a new connection pool and verifies it with a ping.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return p, nil
}

// GetPool returns the shared connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the shared connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}

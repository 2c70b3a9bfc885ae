// Package postgres adapts the teacher's PostgresOrderStore/migrate.go
// pattern into a snapshot.Store: encoded snapshot blobs live in a single
// chronos_snapshots table, one row per (key, created_at), keyed by
// instrument/key string rather than by order id.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/ksuid"

	"github.com/vivkver/chronos/internal/snapshot"
)

//go:embed 001_initial_schema.sql
var initialSchema string

// Config mirrors the teacher's PostgresConfig connection-parameter shape.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
}

func (c Config) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Database, sslMode)
}

// Store implements snapshot.Store against PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects, runs the embedded migration, and returns a ready Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("snapshot/postgres: parsing config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("snapshot/postgres: connecting: %w", err)
	}

	if _, err := pool.Exec(ctx, initialSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("snapshot/postgres: running migration: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Put(key string, blob []byte) (snapshot.Meta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := ksuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO chronos_snapshots (id, key, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, key, blob, now)
	if err != nil {
		return snapshot.Meta{}, fmt.Errorf("snapshot/postgres: insert: %w", err)
	}

	return snapshot.Meta{ID: id, SizeBytes: len(blob), CreatedAtUTC: now}, nil
}

func (s *Store) Get(key string) ([]byte, snapshot.Meta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	var payload []byte
	var createdAt time.Time

	err := s.pool.QueryRow(ctx, `
		SELECT id, payload, created_at FROM chronos_snapshots
		WHERE key = $1 ORDER BY created_at DESC LIMIT 1
	`, key).Scan(&id, &payload, &createdAt)
	if err == pgx.ErrNoRows {
		return nil, snapshot.Meta{}, fmt.Errorf("snapshot/postgres: no snapshot for key %q", key)
	}
	if err != nil {
		return nil, snapshot.Meta{}, fmt.Errorf("snapshot/postgres: query: %w", err)
	}

	return payload, snapshot.Meta{ID: id, SizeBytes: len(payload), CreatedAtUTC: createdAt}, nil
}

func (s *Store) List() ([]snapshot.Meta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, octet_length(payload), created_at FROM chronos_snapshots ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("snapshot/postgres: list query: %w", err)
	}
	defer rows.Close()

	var out []snapshot.Meta
	for rows.Next() {
		var m snapshot.Meta
		if err := rows.Scan(&m.ID, &m.SizeBytes, &m.CreatedAtUTC); err != nil {
			return nil, fmt.Errorf("snapshot/postgres: scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ snapshot.Store = (*Store)(nil)

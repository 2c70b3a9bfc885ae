// Package redis adapts the teacher's RedisOrderStore FIFO-via-sorted-set
// idiom into a snapshot.Store: the latest blob per key lives under
// "chronos:snapshot:<key>", and a sorted set "chronos:snapshot:versions:<key>"
// (score = write time) tracks history for retention trimming.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"

	"github.com/vivkver/chronos/internal/snapshot"
)

const (
	blobKeyPrefix    = "chronos:snapshot:"
	versionKeyPrefix = "chronos:snapshot:versions:"
)

// Config mirrors the teacher's RedisConfig connection shape.
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
	TLSEnabled   bool
	Retention    int
}

// Store implements snapshot.Store against Redis.
type Store struct {
	client    *goredis.Client
	retention int
}

// New connects to Redis and verifies reachability with a Ping.
func New(cfg Config) (*Store, error) {
	opts := &goredis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("snapshot/redis: ping: %w", err)
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = 10
	}

	return &Store{client: client, retention: retention}, nil
}

func (s *Store) Put(key string, blob []byte) (snapshot.Meta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	id := ksuid.New().String()
	now := time.Now().UTC()

	pipe := s.client.Pipeline()
	pipe.Set(ctx, blobKeyPrefix+key, blob, 0)
	pipe.ZAdd(ctx, versionKeyPrefix+key, goredis.Z{Score: float64(now.UnixNano()), Member: id})
	pipe.ZRemRangeByRank(ctx, versionKeyPrefix+key, 0, int64(-s.retention-1))

	if _, err := pipe.Exec(ctx); err != nil {
		return snapshot.Meta{}, fmt.Errorf("snapshot/redis: put: %w", err)
	}

	return snapshot.Meta{ID: id, SizeBytes: len(blob), CreatedAtUTC: now}, nil
}

func (s *Store) Get(key string) ([]byte, snapshot.Meta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	blob, err := s.client.Get(ctx, blobKeyPrefix+key).Bytes()
	if err == goredis.Nil {
		return nil, snapshot.Meta{}, fmt.Errorf("snapshot/redis: no snapshot for key %q", key)
	}
	if err != nil {
		return nil, snapshot.Meta{}, fmt.Errorf("snapshot/redis: get: %w", err)
	}

	return blob, snapshot.Meta{SizeBytes: len(blob)}, nil
}

func (s *Store) List() ([]snapshot.Meta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	keys, err := s.client.Keys(ctx, versionKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("snapshot/redis: list: %w", err)
	}

	var out []snapshot.Meta
	for _, k := range keys {
		members, err := s.client.ZRevRangeWithScores(ctx, k, 0, 0).Result()
		if err != nil || len(members) == 0 {
			continue
		}
		out = append(out, snapshot.Meta{
			ID:           fmt.Sprintf("%v", members[0].Member),
			CreatedAtUTC: time.Unix(0, int64(members[0].Score)).UTC(),
		})
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

var _ snapshot.Store = (*Store)(nil)

// Package redis implements core.Backend on a Redis server. Each record is a
// JSON object stored under KeyPrefix + ID.
package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/introspection"
	rdb "github.com/redis/go-redis/v9"

	"github.com/aretw0/docmap/pkg/core"
)

// DefaultKeyPrefix namespaces docmap keys.
const DefaultKeyPrefix = "docmap:"

// Config holds the configuration for the Redis backend.
type Config struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	CreateOnly  bool // fail with core.ErrConflict instead of overwriting
	ReadOnly    bool // reject every Save with core.ErrReadOnly
	DialTimeout time.Duration
	Logger      *slog.Logger
}

// Backend stores records in Redis.
type Backend struct {
	client *rdb.Client
	config Config
}

// NewBackend connects lazily to the server described by config.
func NewBackend(config Config) *Backend {
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultKeyPrefix
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	client := rdb.NewClient(&rdb.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
		MaxRetries:  -1, // retries belong to the caller
	})
	return &Backend{client: client, config: config}
}

// Initialize pings the server.
func (b *Backend) Initialize(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", b.config.Addr, err)
	}
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	return b.client.Close()
}

// Save writes rec and reads it back in one MULTI/EXEC, returning the value
// Redis holds after the write.
func (b *Backend) Save(ctx context.Context, rec core.Record) (core.Record, error) {
	if rec.ID == "" {
		return core.Record{}, core.Persistence("redis save", "", core.ErrMissingID)
	}
	if b.config.ReadOnly {
		return core.Record{}, core.Persistence("redis save", rec.ID, core.ErrReadOnly)
	}
	payload, err := encode(rec.Fields)
	if err != nil {
		return core.Record{}, core.Persistence("redis save", rec.ID, err)
	}

	key := b.key(rec.ID)
	pipe := b.client.TxPipeline()
	var created *rdb.BoolCmd
	if b.config.CreateOnly {
		created = pipe.SetNX(ctx, key, payload, 0)
	} else {
		pipe.Set(ctx, key, payload, 0)
	}
	get := pipe.Get(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return core.Record{}, core.Persistence("redis save", rec.ID, err)
	}
	if created != nil && !created.Val() {
		return core.Record{}, core.Persistence("redis save", rec.ID, core.ErrConflict)
	}

	stored, err := decode(rec.ID, []byte(get.Val()))
	if err != nil {
		return core.Record{}, core.Persistence("redis save", rec.ID, err)
	}
	if b.config.Logger != nil {
		b.config.Logger.Debug("record saved", "id", rec.ID, "key", key)
	}
	return stored, nil
}

// Get reads the record stored under id.
func (b *Backend) Get(ctx context.Context, id string) (core.Record, error) {
	data, err := b.client.Get(ctx, b.key(id)).Bytes()
	if errors.Is(err, rdb.Nil) {
		return core.Record{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Record{}, err
	}
	return decode(id, data)
}

// List scans every key under the prefix and returns the records sorted by ID.
func (b *Backend) List(ctx context.Context) ([]core.Record, error) {
	var (
		recs   []core.Record
		cursor uint64
	)
	for {
		keys, next, err := b.client.Scan(ctx, cursor, b.config.KeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			rec, err := b.Get(ctx, strings.TrimPrefix(k, b.config.KeyPrefix))
			if errors.Is(err, core.ErrNotFound) {
				continue // deleted between SCAN and GET
			}
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].ID < recs[j].ID
	})
	return recs, nil
}

func (b *Backend) key(id string) string {
	return b.config.KeyPrefix + id
}

func encode(fields core.Fields) ([]byte, error) {
	if fields == nil {
		fields = core.Fields{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

func decode(id string, data []byte) (core.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fields := core.Fields{}
	if err := dec.Decode(&fields); err != nil {
		return core.Record{}, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return core.Record{ID: id, Fields: fields}, nil
}

// BackendState exposes internal state for observability.
type BackendState struct {
	Addr       string `json:"addr"`
	DB         int    `json:"db"`
	KeyPrefix  string `json:"key_prefix"`
	CreateOnly bool   `json:"create_only"`
	ReadOnly   bool   `json:"read_only"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	stats := b.client.PoolStats()
	return BackendState{
		Addr:       b.config.Addr,
		DB:         b.config.DB,
		KeyPrefix:  b.config.KeyPrefix,
		CreateOnly: b.config.CreateOnly,
		ReadOnly:   b.config.ReadOnly,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "redis-backend"
}

var (
	_ core.Backend                 = (*Backend)(nil)
	_ core.Getter                  = (*Backend)(nil)
	_ core.Lister                  = (*Backend)(nil)
	_ core.Initializer             = (*Backend)(nil)
	_ introspection.Introspectable = (*Backend)(nil)
	_ introspection.Component      = (*Backend)(nil)
)

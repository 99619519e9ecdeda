// Package sqlite implements core.Backend on a SQLite database. Records live in
// a single table keyed by ID, with their fields stored as a JSON object.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/introspection"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/aretw0/docmap/pkg/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    fields TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// Config holds the configuration for the SQLite backend.
type Config struct {
	Path       string
	CreateOnly bool // fail with core.ErrConflict instead of overwriting
	ReadOnly   bool // reject every Save with core.ErrReadOnly
	Logger     *slog.Logger
}

// Backend stores records in SQLite.
type Backend struct {
	sqlDB  *sql.DB
	config Config
}

// Open opens (creating if needed) the database at config.Path and applies the
// schema.
func Open(config Config) (*Backend, error) {
	if strings.TrimSpace(config.Path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(config.Path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	b := &Backend{sqlDB: sqlDB, config: config}
	if err := b.Initialize(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return b, nil
}

// Initialize pings the database and applies the schema. It is idempotent.
func (b *Backend) Initialize(ctx context.Context) error {
	if err := b.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := b.sqlDB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (b *Backend) Close() error {
	if b == nil || b.sqlDB == nil {
		return nil
	}
	return b.sqlDB.Close()
}

// Save upserts rec and selects it back inside one transaction.
func (b *Backend) Save(ctx context.Context, rec core.Record) (core.Record, error) {
	if rec.ID == "" {
		return core.Record{}, core.Persistence("sqlite save", "", core.ErrMissingID)
	}
	if b.config.ReadOnly {
		return core.Record{}, core.Persistence("sqlite save", rec.ID, core.ErrReadOnly)
	}
	fields := rec.Fields
	if fields == nil {
		fields = core.Fields{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return core.Record{}, core.Persistence("sqlite save", rec.ID, fmt.Errorf("encode fields: %w", err))
	}

	tx, err := b.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return core.Record{}, core.Persistence("sqlite save", rec.ID, fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()

	stmt := `INSERT INTO documents (id, fields, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at`
	if b.config.CreateOnly {
		stmt = `INSERT INTO documents (id, fields, updated_at) VALUES (?, ?, ?)`
	}
	if _, err := tx.ExecContext(ctx, stmt, rec.ID, string(payload), time.Now().UTC().UnixMilli()); err != nil {
		if isUniqueViolation(err) {
			return core.Record{}, core.Persistence("sqlite save", rec.ID, core.ErrConflict)
		}
		return core.Record{}, core.Persistence("sqlite save", rec.ID, fmt.Errorf("write: %w", err))
	}

	stored, err := get(ctx, tx, rec.ID)
	if err != nil {
		return core.Record{}, core.Persistence("sqlite save", rec.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Record{}, core.Persistence("sqlite save", rec.ID, fmt.Errorf("commit: %w", err))
	}

	if b.config.Logger != nil {
		b.config.Logger.Debug("record saved", "id", rec.ID)
	}
	return stored, nil
}

// Get reads the record stored under id.
func (b *Backend) Get(ctx context.Context, id string) (core.Record, error) {
	return get(ctx, b.sqlDB, id)
}

// List returns every record ordered by ID.
func (b *Backend) List(ctx context.Context) ([]core.Record, error) {
	rows, err := b.sqlDB.QueryContext(ctx, `SELECT id, fields FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var recs []core.Record
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		rec, err := decode(id, payload)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return recs, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func get(ctx context.Context, q queryer, id string) (core.Record, error) {
	var payload string
	err := q.QueryRowContext(ctx, `SELECT fields FROM documents WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get document: %w", err)
	}
	return decode(id, payload)
}

func decode(id, payload string) (core.Record, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	fields := core.Fields{}
	if err := dec.Decode(&fields); err != nil {
		return core.Record{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return core.Record{ID: id, Fields: fields}, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// BackendState exposes internal state for observability.
type BackendState struct {
	Path            string `json:"path"`
	CreateOnly      bool   `json:"create_only"`
	ReadOnly        bool   `json:"read_only"`
	OpenConnections int    `json:"open_connections"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	return BackendState{
		Path:            b.config.Path,
		CreateOnly:      b.config.CreateOnly,
		ReadOnly:        b.config.ReadOnly,
		OpenConnections: b.sqlDB.Stats().OpenConnections,
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "sqlite-backend"
}

var (
	_ core.Backend                 = (*Backend)(nil)
	_ core.Getter                  = (*Backend)(nil)
	_ core.Lister                  = (*Backend)(nil)
	_ core.Initializer             = (*Backend)(nil)
	_ introspection.Introspectable = (*Backend)(nil)
	_ introspection.Component      = (*Backend)(nil)
)

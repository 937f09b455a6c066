package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/terandy/canvas-print-shop-sub000/pkg/memstore"
)

// Persister stores configuration snapshots keyed by a namespaced session
// key. Implementations must tolerate concurrent saves for distinct keys;
// concurrent saves for the same key are last-writer-wins, matching the
// cross-tab behavior of browser local storage.
type Persister interface {
	Save(ctx context.Context, key string, s State) error
	Load(ctx context.Context, key string) (State, bool, error)
	Delete(ctx context.Context, key string) error
}

// MemoryPersister keeps snapshots in process memory. Used in dev, tests,
// and as the fallback when no database is configured.
type MemoryPersister struct {
	snapshots *memstore.Store[State]
}

// NewMemoryPersister creates an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{snapshots: memstore.New[State]()}
}

// Save stores a snapshot.
func (m *MemoryPersister) Save(_ context.Context, key string, s State) error {
	m.snapshots.Set(key, s)
	return nil
}

// Load retrieves a snapshot.
func (m *MemoryPersister) Load(_ context.Context, key string) (State, bool, error) {
	s, ok := m.snapshots.Get(key)
	return s, ok, nil
}

// Delete removes a snapshot.
func (m *MemoryPersister) Delete(_ context.Context, key string) error {
	m.snapshots.Delete(key)
	return nil
}

// PostgresPersister stores snapshots in a config_snapshots table.
type PostgresPersister struct {
	db *sql.DB
}

// NewPostgresPersister opens the database and ensures the schema exists.
func NewPostgresPersister(ctx context.Context, databaseURL string) (*PostgresPersister, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	p := &PostgresPersister{db: db}
	if err := p.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return p, nil
}

func (p *PostgresPersister) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS config_snapshots (
			key        TEXT PRIMARY KEY,
			state      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// Save upserts a snapshot.
func (p *PostgresPersister) Save(ctx context.Context, key string, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO config_snapshots (key, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		key, data)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", key, err)
	}
	return nil
}

// Load retrieves a snapshot.
func (p *PostgresPersister) Load(ctx context.Context, key string) (State, bool, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT state FROM config_snapshots WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("loading snapshot %s: %w", key, err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, false, fmt.Errorf("decoding snapshot %s: %w", key, err)
	}
	return s, true, nil
}

// Delete removes a snapshot.
func (p *PostgresPersister) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM config_snapshots WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (p *PostgresPersister) Close() error {
	return p.db.Close()
}

// OpenPersister returns a Postgres persister when a database URL is
// configured and reachable, and otherwise falls back to the in-memory
// persister. Snapshots are a resume convenience, so running without a
// database is a degradation, not an error.
func OpenPersister(ctx context.Context, databaseURL string, logger *slog.Logger) Persister {
	if logger == nil {
		logger = slog.Default()
	}
	if databaseURL == "" {
		logger.Info("no database configured, keeping configuration snapshots in memory")
		return NewMemoryPersister()
	}
	p, err := NewPostgresPersister(ctx, databaseURL)
	if err != nil {
		logger.Warn("database unavailable, keeping configuration snapshots in memory", "err", err)
		return NewMemoryPersister()
	}
	logger.Info("configuration snapshots persisted to postgres")
	return p
}

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terandy/canvas-print-shop-sub000/internal/cart"
	"github.com/terandy/canvas-print-shop-sub000/internal/catalog"
	"github.com/terandy/canvas-print-shop-sub000/pkg/memstore"
)

// snapshotNamespace prefixes every persisted configuration key.
const snapshotNamespace = "canvas-print-shop.config"

// ConfigStore holds one session's configuration state. All mutations are
// synchronous and immediately visible to the next read; persistence is a
// side effect whose failure is logged, never surfaced. Subscribers get the
// new state after every change.
type ConfigStore struct {
	mu      sync.RWMutex
	state   State
	product catalog.Product

	key     string
	persist Persister
	logger  *slog.Logger

	subs    map[int]chan State
	nextSub int

	// uploadSeq implements the monotonic upload guard: only the most
	// recently initiated upload's completion is applied.
	uploadSeq     uint64
	lastUploadSeq uint64
}

// NewConfigStore seeds a configuration store for the given edit context.
// The persisted snapshot for the session, if any, is restored only when its
// cartItemId matches.
func NewConfigStore(ctx context.Context, p catalog.Product, sessionID, cartItemID string, persist Persister, logger *slog.Logger) *ConfigStore {
	if logger == nil {
		logger = slog.Default()
	}
	key := snapshotNamespace + ":" + sessionID

	var persisted *State
	if persist != nil {
		if snap, ok, err := persist.Load(ctx, key); err != nil {
			logger.Warn("failed to load configuration snapshot", "key", key, "err", err)
		} else if ok {
			persisted = &snap
		}
	}

	return &ConfigStore{
		state:   Seed(p, cartItemID, persisted),
		product: p,
		key:     key,
		persist: persist,
		logger:  logger,
		subs:    make(map[int]chan State),
	}
}

// Get returns the current configuration state.
func (c *ConfigStore) Get() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Product returns the product this configuration edits.
func (c *ConfigStore) Product() catalog.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.product
}

// UpdateField mutates one field and returns the merged state. The value is
// validated against the product's option lists or the fixed enums.
func (c *ConfigStore) UpdateField(ctx context.Context, name, value string) (State, error) {
	c.mu.Lock()
	if err := validateField(c.product, name, value); err != nil {
		c.mu.Unlock()
		return c.Get(), err
	}
	c.state = setField(c.state, name, value)
	state := c.state
	c.mu.Unlock()

	c.afterChange(ctx, state)
	return state, nil
}

// DeleteField resets a field to its default (the "no image" placeholder for
// the image) and returns the new state.
func (c *ConfigStore) DeleteField(ctx context.Context, name string) (State, error) {
	c.mu.Lock()
	if !knownField(name) {
		c.mu.Unlock()
		return c.Get(), fmt.Errorf("unknown configuration field %q", name)
	}
	c.state = setField(c.state, name, fieldDefault(c.product, name))
	state := c.state
	c.mu.Unlock()

	c.afterChange(ctx, state)
	return state, nil
}

// afterChange persists the snapshot and notifies subscribers. Persistence
// is fire-and-forget: an error only produces a log line.
func (c *ConfigStore) afterChange(ctx context.Context, state State) {
	if c.persist != nil {
		if err := c.persist.Save(ctx, c.key, state); err != nil {
			c.logger.Warn("failed to persist configuration snapshot", "key", c.key, "err", err)
		}
	}

	c.mu.RLock()
	for _, ch := range c.subs {
		select {
		case ch <- state:
		default: // slow subscriber, drop rather than block the mutation path
		}
	}
	c.mu.RUnlock()
}

// Subscribe registers a listener for state changes. The returned cancel
// function must be called to release the subscription.
func (c *ConfigStore) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan State, 8)
	c.subs[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// CanAddToCart reports whether the configuration is complete enough to be
// added to the cart: a real image is required.
func (c *ConfigStore) CanAddToCart() bool {
	return c.Get().HasImage()
}

// BeginUpload registers a new upload attempt and returns its sequence
// number. Sequence numbers are monotonic per session.
func (c *ConfigStore) BeginUpload() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploadSeq++
	return c.uploadSeq
}

// CompleteUpload applies an upload's resulting image URL only when its
// sequence is exactly the most recently initiated upload's. Completions of
// superseded uploads are discarded so a slow first upload cannot clobber a
// faster second one, and sequences BeginUpload never issued are discarded
// outright.
func (c *ConfigStore) CompleteUpload(ctx context.Context, seq uint64, imageURL string) (State, bool) {
	c.mu.Lock()
	if seq != c.uploadSeq || seq <= c.lastUploadSeq {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded upload completion", "seq", seq, "latest", c.uploadSeq)
		return c.state, false
	}
	c.lastUploadSeq = seq
	c.state = setField(c.state, FieldImageURL, imageURL)
	state := c.state
	c.mu.Unlock()

	c.afterChange(ctx, state)
	return state, true
}

// Session ties one browser session's configuration and cart state together.
type Session struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	Config    *ConfigStore `json:"-"`
	Cart      *cart.Store  `json:"-"`
}

// Manager is the session registry. Sessions live in memory; their
// configuration snapshots go through the Persister.
type Manager struct {
	sessions *memstore.Store[*Session]
	persist  Persister
	logger   *slog.Logger
}

// NewManager creates a session manager.
func NewManager(persist Persister, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: memstore.New[*Session](),
		persist:  persist,
		logger:   logger,
	}
}

// NewID generates a session id.
func (m *Manager) NewID() string {
	return uuid.NewString()
}

// GetOrCreate returns the session with the given id, creating it against
// the product when absent. The cartItemID names the edit context used to
// gate snapshot restore.
func (m *Manager) GetOrCreate(ctx context.Context, id string, p catalog.Product, cartItemID string) *Session {
	sess, _ := m.sessions.GetOrCreate(id, func() *Session {
		return &Session{
			ID:        id,
			CreatedAt: time.Now(),
			Config:    NewConfigStore(ctx, p, id, cartItemID, m.persist, m.logger),
			Cart:      cart.NewStore(m.logger),
		}
	})
	return sess
}

// Get returns an existing session.
func (m *Manager) Get(id string) (*Session, bool) {
	return m.sessions.Get(id)
}

// Page lists sessions for admin inspection.
func (m *Manager) Page(cursor string, limit int) memstore.Page[*Session] {
	return m.sessions.Paginate(cursor, limit)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.sessions.Count()
}

// Reset drops all sessions.
func (m *Manager) Reset() {
	m.sessions.Reset()
}

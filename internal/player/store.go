package player

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// CodeStorageIO marks errors caused by the durable backend.
const CodeStorageIO = "storage_io"

// ErrSkipUpdate may be returned from a Modify callback to leave the record
// untouched without reporting an error.
var ErrSkipUpdate = errors.New("player: skip update")

// Backend loads and saves the full record set of one context. Keys are
// already sanitized (see SanitizeContext).
type Backend interface {
	Load(ctx context.Context, key string) ([]Entry, error)
	Save(ctx context.Context, key string, entries []Entry) error
}

var unsafeContextChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeContext maps an arbitrary context id to a storage-safe key.
func SanitizeContext(contextID string) string {
	v := strings.TrimSpace(contextID)
	if v == "" {
		v = "default"
	}
	return unsafeContextChars.ReplaceAllString(v, "_")
}

type contextCache struct {
	records map[uuid.UUID]Record
	order   []uuid.UUID
}

func (c *contextCache) entries() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Entry{ID: id, Record: c.records[id]})
	}
	return out
}

// put stores rec and returns a func that undoes the change.
func (c *contextCache) put(id uuid.UUID, rec Record) func() {
	prev, existed := c.records[id]
	c.records[id] = rec
	if existed {
		return func() { c.records[id] = prev }
	}
	c.order = append(c.order, id)
	return func() {
		delete(c.records, id)
		c.order = c.order[:len(c.order)-1]
	}
}

// Store caches every touched context in memory and writes the whole context
// through to the backend on each change. One mutex guards all contexts so a
// Modify callback sees and replaces a record atomically.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	contexts map[string]*contextCache
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns a Store persisting through backend.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend:  backend,
		logger:   slog.Default(),
		contexts: make(map[string]*contextCache),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the player's record, caching a default one on first
// use. The default is not written until the context is next saved.
func (s *Store) GetOrCreate(ctx context.Context, contextID string, id uuid.UUID) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, contextID)
	if err != nil {
		return Record{}, err
	}
	rec, ok := c.records[id]
	if !ok {
		c.put(id, rec)
	}
	return rec, nil
}

// Find returns the player's record without creating one.
func (s *Store) Find(ctx context.Context, contextID string, id uuid.UUID) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, contextID)
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := c.records[id]
	return rec, ok, nil
}

// Update replaces the player's record and persists the context before
// returning.
func (s *Store) Update(ctx context.Context, contextID string, id uuid.UUID, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, contextID)
	if err != nil {
		return err
	}
	return s.write(ctx, contextID, c, id, rec)
}

// Modify runs fn on the player's current record (a default one if absent)
// and persists the result, all under the store lock. If fn returns
// ErrSkipUpdate nothing is written and the current record is returned; any
// other error aborts the change and is returned as is.
func (s *Store) Modify(ctx context.Context, contextID string, id uuid.UUID, fn func(Record) (Record, error)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, contextID)
	if err != nil {
		return Record{}, err
	}
	cur := c.records[id]
	next, err := fn(cur)
	if errors.Is(err, ErrSkipUpdate) {
		return cur, nil
	}
	if err != nil {
		return cur, err
	}
	next = next.Normalized()
	if err := s.write(ctx, contextID, c, id, next); err != nil {
		return cur, err
	}
	return next, nil
}

// Snapshot returns a copy of every record in the context, in insertion order.
func (s *Store) Snapshot(ctx context.Context, contextID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, contextID)
	if err != nil {
		return nil, err
	}
	return c.entries(), nil
}

// Close releases the backend if it holds resources.
func (s *Store) Close() error {
	if closer, ok := s.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// load returns the cached context, reading it from the backend on first use.
// Callers hold s.mu.
func (s *Store) load(ctx context.Context, contextID string) (*contextCache, error) {
	key := SanitizeContext(contextID)
	if c, ok := s.contexts[key]; ok {
		return c, nil
	}
	entries, err := s.backend.Load(ctx, key)
	if err != nil {
		return nil, oops.
			Code(CodeStorageIO).
			In("player").
			With("context", key).
			Wrapf(err, "load player records")
	}
	c := &contextCache{records: make(map[uuid.UUID]Record, len(entries))}
	for _, e := range entries {
		c.put(e.ID, e.Record.Normalized())
	}
	s.contexts[key] = c
	s.logger.DebugContext(ctx, "player context loaded", "context", key, "records", len(c.order))
	return c, nil
}

// write applies rec to the cache and flushes the context, rolling the cache
// back if the flush fails. Callers hold s.mu.
func (s *Store) write(ctx context.Context, contextID string, c *contextCache, id uuid.UUID, rec Record) error {
	key := SanitizeContext(contextID)
	undo := c.put(id, rec.Normalized())
	if err := s.backend.Save(ctx, key, c.entries()); err != nil {
		undo()
		return oops.
			Code(CodeStorageIO).
			In("player").
			With("context", key).
			With("player", id.String()).
			Wrapf(err, "save player records")
	}
	return nil
}

// IsIOError reports whether err came from the storage backend.
func IsIOError(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == CodeStorageIO
}

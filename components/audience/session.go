package audience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

var (
	// ErrSessionNotFound is returned for unknown or expired builder sessions.
	ErrSessionNotFound = errors.New("audience: session not found")
	ErrSessionExists   = errors.New("audience: session already exists")
)

// Session pairs a builder with the lock serializing its mutations.
type Session struct {
	ID       string
	OpenedAt time.Time

	mu      sync.Mutex
	builder *Builder
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return "session-" + uuid.Must(uuid.NewV7()).String()
}

// NewSession wraps builder in a session. An empty id gets a fresh one.
func NewSession(id string, builder *Builder, openedAt time.Time) *Session {
	if id == "" {
		id = NewSessionID()
	}
	return &Session{
		ID:       id,
		OpenedAt: openedAt,
		builder:  builder,
	}
}

// Do runs fn with exclusive access to the builder.
func (s *Session) Do(fn func(*Builder) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.builder)
}

// SessionStore keeps builder sessions for the lifetime of a builder dialog.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// CacheSessionStore keeps sessions in memory and drops them after an idle TTL.
type CacheSessionStore struct {
	cache *gocache.Cache
}

// NewCacheSessionStore builds a store expiring sessions idle for ttl.
func NewCacheSessionStore(ttl, cleanup time.Duration) *CacheSessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if cleanup <= 0 {
		cleanup = ttl
	}
	return &CacheSessionStore{cache: gocache.New(ttl, cleanup)}
}

// Create stores a new session, failing with ErrSessionExists when the id is
// already live.
func (s *CacheSessionStore) Create(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return ErrMissingSessionID
	}
	if err := s.cache.Add(session.ID, session, gocache.DefaultExpiration); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionExists, session.ID)
	}
	return nil
}

// Save stores or refreshes a session.
func (s *CacheSessionStore) Save(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return ErrMissingSessionID
	}
	s.cache.Set(session.ID, session, gocache.DefaultExpiration)
	return nil
}

// Get returns a session and extends its idle deadline.
func (s *CacheSessionStore) Get(_ context.Context, id string) (*Session, error) {
	item, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session, ok := item.(*Session)
	if !ok {
		return nil, ErrSessionNotFound
	}
	_ = s.cache.Replace(id, session, gocache.DefaultExpiration)
	return session, nil
}

// Delete discards a session.
func (s *CacheSessionStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

// Len reports the number of live sessions.
func (s *CacheSessionStore) Len() int {
	return s.cache.ItemCount()
}

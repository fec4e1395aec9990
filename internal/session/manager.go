// Package session manages server-side member sessions. The client only ever
// holds the opaque session id; the session record lives in a Store, sealed
// with a key that is independent of the cookie-signing secret.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLifetime is the fixed lifetime of a session from creation.
const DefaultLifetime = 24 * time.Hour

const defaultKeyPrefix = "session:"

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session has expired
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidSession is returned when session data is invalid
	ErrInvalidSession = errors.New("invalid session")
	// ErrIncompleteIdentity is returned when creating a session without an email or name
	ErrIncompleteIdentity = errors.New("session requires email and name")
)

// Manager defines the interface for session management operations
type Manager interface {
	Create(ctx context.Context, email, name string) (string, error)
	Get(ctx context.Context, token string) (*Session, error)
	IsAuthenticated(ctx context.Context, token string) (bool, error)
	Destroy(ctx context.Context, token string) error
	Touch(ctx context.Context, token string) error
}

// Option configures a manager.
type Option func(*manager)

// WithLifetime overrides DefaultLifetime.
func WithLifetime(d time.Duration) Option {
	return func(m *manager) {
		if d > 0 {
			m.lifetime = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithKeyPrefix overrides the store key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(m *manager) {
		m.prefix = prefix
	}
}

// manager implements Manager interface
type manager struct {
	store    Store
	sealer   *Sealer
	lifetime time.Duration
	prefix   string
	now      func() time.Time
}

// NewManager creates a new session manager
func NewManager(store Store, sealer *Sealer, opts ...Option) Manager {
	m := &manager{
		store:    store,
		sealer:   sealer,
		lifetime: DefaultLifetime,
		prefix:   defaultKeyPrefix,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create creates a new authenticated session and returns its token
func (m *manager) Create(ctx context.Context, email, name string) (string, error) {
	if email == "" || name == "" {
		return "", ErrIncompleteIdentity
	}

	now := m.now()
	sess := &Session{
		ID:            uuid.New().String(),
		Authenticated: true,
		Email:         email,
		Name:          name,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.lifetime),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	sealed, err := m.sealer.Seal(data)
	if err != nil {
		return "", fmt.Errorf("failed to seal session: %w", err)
	}

	if err := m.store.Save(ctx, m.key(sess.ID), sealed, m.lifetime); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return sess.ID, nil
}

// Get retrieves a live session by token
func (m *manager) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	key := m.key(token)

	sealed, err := m.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	data, err := m.sealer.Open(sealed)
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, ErrInvalidSession
	}
	if sess.ID != token {
		return nil, ErrInvalidSession
	}

	if sess.Expired(m.now()) {
		if err := m.store.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		return nil, ErrSessionExpired
	}

	return &sess, nil
}

// IsAuthenticated reports whether token names a live authenticated session.
// Only store failures are returned as errors.
func (m *manager) IsAuthenticated(ctx context.Context, token string) (bool, error) {
	sess, err := m.Get(ctx, token)
	switch {
	case err == nil:
		return sess.Authenticated, nil
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrInvalidSession):
		return false, nil
	default:
		return false, err
	}
}

// Destroy removes a session. Destroying an unknown token is a no-op.
func (m *manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, m.key(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Touch re-asserts the store TTL to the session's remaining lifetime.
// ExpiresAt is never moved.
func (m *manager) Touch(ctx context.Context, token string) error {
	sess, err := m.Get(ctx, token)
	if err != nil {
		return err
	}

	remaining := sess.ExpiresAt.Sub(m.now())
	if remaining <= 0 {
		return m.Destroy(ctx, token)
	}
	return m.store.Touch(ctx, m.key(token), remaining)
}

func (m *manager) key(token string) string {
	return m.prefix + token
}

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/aflah-pp/NarrativeNexus/internal/models"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
)

var bucketSession = []byte("session")

// IdentityFetcher loads the authenticated identity from the identity
// endpoint. The API client satisfies it; the indirection keeps the store
// free of a dependency cycle with the transport layer.
type IdentityFetcher interface {
	Me(ctx context.Context) (models.UserSummary, error)
}

// Store is the single source of truth for the token pair and the cached
// identity. Tokens are persisted so they survive a restart; the identity is
// a cache that is refetched, never persisted.
type Store struct {
	db       *bbolt.DB
	clientID string
	logger   *slog.Logger

	mu      sync.RWMutex
	access  string
	refresh string
	current *models.UserSummary
	fetcher IdentityFetcher
	subs    []func()
}

// Open loads (or creates) the durable session state at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create session bucket: %w", err)
	}

	s := &Store{
		db:       db,
		clientID: uuid.NewString(),
		logger:   logger,
	}

	rec, err := s.load()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.access = rec.Access
	s.refresh = rec.Refresh

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ClientID identifies this client instance in logs.
func (s *Store) ClientID() string {
	return s.clientID
}

// BindIdentity wires the identity endpoint in after construction.
func (s *Store) BindIdentity(f IdentityFetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetcher = f
}

// Subscribe registers fn to run after every session change (login, logout,
// token refresh, identity update).
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// CurrentUser returns the cached identity, if one has been validated since
// the last clear. The cache may be stale until RefreshIdentity runs.
func (s *Store) CurrentUser() (models.UserSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.UserSummary{}, false
	}
	return *s.current, true
}

// Login persists a freshly minted token pair. Fetching the identity is the
// caller's responsibility.
func (s *Store) Login(access, refresh string) error {
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	err := s.persist()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// SetAccessToken replaces the access token after a refresh, keeping the
// refresh token and identity.
func (s *Store) SetAccessToken(access string) error {
	s.mu.Lock()
	s.access = access
	err := s.persist()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Logout clears tokens and cached identity. Safe to call when already
// logged out.
func (s *Store) Logout() error {
	s.mu.Lock()
	wasEmpty := s.access == "" && s.refresh == "" && s.current == nil
	s.access = ""
	s.refresh = ""
	s.current = nil
	err := s.persist()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if !wasEmpty {
		s.notify()
	}
	return nil
}

// RefreshIdentity refetches users/me/ and replaces the cached identity.
// Without an access token it fails immediately, no network call. On a fetch
// failure the identity cache is cleared but the tokens are kept: whether to
// discard them is the route guard's decision.
func (s *Store) RefreshIdentity(ctx context.Context) (models.UserSummary, error) {
	s.mu.RLock()
	access := s.access
	fetcher := s.fetcher
	s.mu.RUnlock()

	if access == "" {
		return models.UserSummary{}, ErrUnauthenticated
	}
	if fetcher == nil {
		return models.UserSummary{}, errors.New("session: no identity fetcher bound")
	}

	user, err := fetcher.Me(ctx)
	if err != nil {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		s.logger.Warn("identity refresh failed", "client_id", s.clientID, "error", err)
		return models.UserSummary{}, fmt.Errorf("failed to refresh identity: %w", err)
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()
	s.logger.Debug("identity refreshed", "client_id", s.clientID, "username", user.Username)
	s.notify()
	return user, nil
}

// NotifyChanged reacts to an out-of-band session change signal by
// re-resolving the identity against the current tokens.
func (s *Store) NotifyChanged(ctx context.Context) {
	if s.AccessToken() == "" {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		s.notify()
		return
	}
	if _, err := s.RefreshIdentity(ctx); err != nil {
		s.logger.Warn("session change signal: identity resolve failed",
			"client_id", s.clientID, "error", err)
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

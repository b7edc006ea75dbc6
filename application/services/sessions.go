package services

import (
	"context"
	"strings"
	"sync"

	"ideapardaz/application/ports"
	pkgerrors "ideapardaz/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Sessions keeps one IdeaStore per user, opened on first use. Opening a
// store never holds the registry lock, so a slow backend for one user does
// not stall requests for users whose stores are already open.
type Sessions struct {
	factory ports.AdapterFactory
	opts    StoreOptions
	logger  *zap.Logger

	opening singleflight.Group

	mu     sync.Mutex
	stores map[string]*IdeaStore
	closed bool
}

// NewSessions creates a session registry. UserID in opts is ignored.
func NewSessions(factory ports.AdapterFactory, opts StoreOptions) *Sessions {
	opts = opts.withDefaults()
	return &Sessions{
		factory: factory,
		opts:    opts,
		logger:  opts.Logger,
		stores:  make(map[string]*IdeaStore),
	}
}

// Store returns the idea store owned by userID, opening it if needed
func (s *Sessions) Store(ctx context.Context, userID string) (*IdeaStore, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.NewUnauthorizedError("user id is required")
	}

	if store, ok := s.cached(userID); ok {
		return store, nil
	}

	// concurrent first requests for one user share a single open
	v, err, _ := s.opening.Do(userID, func() (interface{}, error) {
		if store, ok := s.cached(userID); ok {
			return store, nil
		}
		return s.open(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*IdeaStore), nil
}

func (s *Sessions) cached(userID string) (*IdeaStore, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.stores[userID]
	return store, ok
}

func (s *Sessions) open(ctx context.Context, userID string) (*IdeaStore, error) {
	adapter, err := s.factory.ForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("open", err)
	}

	opts := s.opts
	opts.UserID = userID
	store, err := NewIdeaStore(ctx, adapter, opts)
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = store.Close()
		return nil, pkgerrors.NewUnavailableError("sessions")
	}
	s.stores[userID] = store
	count := len(s.stores)
	s.mu.Unlock()

	s.logger.Debug("Opened session", zap.String("userID", userID), zap.Int("sessions", count))
	return store, nil
}

// Evict closes and forgets the store of userID
func (s *Sessions) Evict(userID string) error {
	s.mu.Lock()
	store, ok := s.stores[userID]
	delete(s.stores, userID)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return store.Close()
}

// Close closes every open store
func (s *Sessions) Close() error {
	s.mu.Lock()
	stores := s.stores
	s.stores = make(map[string]*IdeaStore)
	s.closed = true
	s.mu.Unlock()

	var firstErr error
	for userID, store := range stores {
		if err := store.Close(); err != nil {
			s.logger.Warn("Failed to close session", zap.String("userID", userID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"ideapardaz/application/ports"
	"ideapardaz/infrastructure/persistence/memory"
	pkgerrors "ideapardaz/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsOneStorePerUser(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessions(memory.NewBackend(nil), StoreOptions{})
	defer sessions.Close()

	alice, err := sessions.Store(ctx, "alice")
	require.NoError(t, err)
	again, err := sessions.Store(ctx, "alice")
	require.NoError(t, err)
	bob, err := sessions.Store(ctx, "bob")
	require.NoError(t, err)

	assert.Same(t, alice, again)
	assert.NotSame(t, alice, bob)
	assert.Equal(t, "alice", alice.UserID())

	addIdea(t, alice, "private")
	assert.Empty(t, bob.ActiveIdeas())
}

func TestSessionsRequireUser(t *testing.T) {
	sessions := NewSessions(memory.NewBackend(nil), StoreOptions{})
	_, err := sessions.Store(context.Background(), "  ")
	assert.True(t, pkgerrors.IsUnauthorized(err))
}

func TestSessionsEvictReopensFromDurableState(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessions(memory.NewBackend(nil), StoreOptions{})
	defer sessions.Close()

	store, err := sessions.Store(ctx, "alice")
	require.NoError(t, err)
	idea := addIdea(t, store, "kept")

	require.NoError(t, sessions.Evict("alice"))

	reopened, err := sessions.Store(ctx, "alice")
	require.NoError(t, err)
	assert.NotSame(t, store, reopened)
	_, err = reopened.Idea(idea.ID)
	assert.NoError(t, err)
}

// gatedFactory blocks ForUser for one user until release is closed
type gatedFactory struct {
	next    ports.AdapterFactory
	slow    string
	entered chan struct{}
	release chan struct{}
	opens   atomic.Int32
}

func (f *gatedFactory) ForUser(ctx context.Context, userID string) (ports.PersistenceAdapter, error) {
	if userID == f.slow {
		f.opens.Add(1)
		close(f.entered)
		<-f.release
	}
	return f.next.ForUser(ctx, userID)
}

func TestSessionsSlowOpenDoesNotBlockOpenStores(t *testing.T) {
	ctx := context.Background()
	factory := &gatedFactory{
		next:    memory.NewBackend(nil),
		slow:    "slow",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	sessions := NewSessions(factory, StoreOptions{})
	defer sessions.Close()

	alice, err := sessions.Store(ctx, "alice")
	require.NoError(t, err)

	results := make(chan *IdeaStore, 2)
	for i := 0; i < 2; i++ {
		go func() {
			store, err := sessions.Store(ctx, "slow")
			assert.NoError(t, err)
			results <- store
		}()
	}
	<-factory.entered

	done := make(chan *IdeaStore, 1)
	go func() {
		store, _ := sessions.Store(ctx, "alice")
		done <- store
	}()
	select {
	case store := <-done:
		assert.Same(t, alice, store)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("open store waited on another user's open")
	}

	close(factory.release)
	first, second := <-results, <-results
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), factory.opens.Load(), "concurrent opens for one user are shared")
}

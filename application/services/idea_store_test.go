package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ideapardaz/application/commands"
	"ideapardaz/application/ports"
	"ideapardaz/domain/config"
	"ideapardaz/domain/core/entities"
	"ideapardaz/domain/events"
	"ideapardaz/infrastructure/persistence/file"
	"ideapardaz/infrastructure/persistence/memory"
	pkgerrors "ideapardaz/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyAdapter fails or blocks ApplyBatch on demand
type flakyAdapter struct {
	ports.PersistenceAdapter

	mu      sync.Mutex
	failErr error
	block   bool
	applied int
}

func (f *flakyAdapter) ApplyBatch(ctx context.Context, batch ports.Batch) (ports.Revision, error) {
	f.mu.Lock()
	failErr, block := f.failErr, f.block
	f.mu.Unlock()

	if failErr != nil {
		return 0, failErr
	}
	if block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	f.mu.Lock()
	f.applied++
	f.mu.Unlock()
	return f.PersistenceAdapter.ApplyBatch(ctx, batch)
}

func (f *flakyAdapter) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failErr = err
}

// recordingPublisher keeps every published event type
type recordingPublisher struct {
	mu    sync.Mutex
	types []string
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range evts {
		p.types = append(p.types, e.GetEventType())
	}
	return p.err
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

func newTestStore(t *testing.T, opts StoreOptions) (*IdeaStore, *flakyAdapter) {
	t.Helper()
	adapter := &flakyAdapter{PersistenceAdapter: memory.NewBackend(nil).Connect("u1")}
	opts.UserID = "u1"
	store, err := NewIdeaStore(context.Background(), adapter, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, adapter
}

func addIdea(t *testing.T, s *IdeaStore, title string, links ...string) entities.Idea {
	t.Helper()
	idea, err := s.AddIdea(context.Background(), commands.AddIdeaCommand{
		Title:         title,
		Content:       title + " content",
		VibeID:        "1",
		LinkedIdeaIDs: links,
	})
	require.NoError(t, err)
	return idea
}

func mustIdea(t *testing.T, s *IdeaStore, id string) entities.Idea {
	t.Helper()
	idea, err := s.Idea(id)
	require.NoError(t, err)
	return idea
}

func ideaIDs(ideas []entities.Idea) []string {
	out := make([]string, 0, len(ideas))
	for _, i := range ideas {
		out = append(out, i.ID)
	}
	return out
}

func TestNewStoreHasBuiltinVibes(t *testing.T) {
	store, _ := newTestStore(t, StoreOptions{})

	vibes := store.Vibes()
	require.Len(t, vibes, 3)
	assert.Equal(t, entities.BuiltinVibes, vibes)
	assert.Empty(t, store.ActiveIdeas())
}

func TestScenarioLinkedIdeaCreation(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})

	v1, err := store.AddVibe(ctx, "🚀 Project")
	require.NoError(t, err)

	i1, err := store.AddIdea(ctx, commands.AddIdeaCommand{Title: "A", Content: "...", VibeID: v1.ID})
	require.NoError(t, err)
	i2, err := store.AddIdea(ctx, commands.AddIdeaCommand{Title: "B", Content: "...", VibeID: v1.ID, LinkedIdeaIDs: []string{i1.ID}})
	require.NoError(t, err)

	assert.Equal(t, []string{i2.ID}, mustIdea(t, store, i1.ID).LinkedIdeaIDs)
	assert.Equal(t, []string{i1.ID}, mustIdea(t, store, i2.ID).LinkedIdeaIDs)
	assert.Greater(t, i2.Timestamp, i1.Timestamp)
	assert.False(t, i2.IsArchived)
	assert.False(t, i2.IsPinned)
	assert.Equal(t, ports.Revision(3), store.Revision())
}

func TestScenarioPinThenArchive(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})
	i1 := addIdea(t, store, "A")

	require.NoError(t, store.TogglePinIdea(ctx, i1.ID))
	assert.True(t, mustIdea(t, store, i1.ID).IsPinned)

	require.NoError(t, store.ArchiveIdea(ctx, i1.ID))
	got := mustIdea(t, store, i1.ID)
	assert.False(t, got.IsPinned)
	assert.True(t, got.IsArchived)

	require.NoError(t, store.UnarchiveIdea(ctx, i1.ID))
	got = mustIdea(t, store, i1.ID)
	assert.False(t, got.IsArchived)
	assert.False(t, got.IsPinned, "pin is not restored")
}

func TestScenarioDeleteLinkedIdea(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})
	i1 := addIdea(t, store, "A")
	i2 := addIdea(t, store, "B", i1.ID)

	require.NoError(t, store.DeleteIdea(ctx, i2.ID))

	assert.Empty(t, mustIdea(t, store, i1.ID).LinkedIdeaIDs)
	_, err := store.Idea(i2.ID)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDeleteRemovesEveryBackReference(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})
	a := addIdea(t, store, "A")
	b := addIdea(t, store, "B", a.ID)
	c := addIdea(t, store, "C", a.ID, b.ID)

	require.NoError(t, store.DeleteIdea(ctx, a.ID))

	for _, idea := range store.IdeasByID() {
		assert.NotContains(t, idea.LinkedIdeaIDs, a.ID)
	}
	assert.Equal(t, []string{c.ID}, mustIdea(t, store, b.ID).LinkedIdeaIDs)
	assert.True(t, store.ExportSnapshot().LinksAreSymmetric())
}

func TestAddIdeaValidation(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})
	existing := addIdea(t, store, "A")
	before := store.ExportSnapshot()
	rev := store.Revision()

	tests := []struct {
		name string
		cmd  commands.AddIdeaCommand
	}{
		{"empty title", commands.AddIdeaCommand{Title: "  ", Content: "x", VibeID: "1"}},
		{"empty content", commands.AddIdeaCommand{Title: "t", Content: "", VibeID: "1"}},
		{"unknown vibe", commands.AddIdeaCommand{Title: "t", Content: "x", VibeID: "nope"}},
		{"unknown link", commands.AddIdeaCommand{Title: "t", Content: "x", VibeID: "1", LinkedIdeaIDs: []string{existing.ID, "ghost"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.AddIdea(ctx, tt.cmd)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.True(t, before.Equal(store.ExportSnapshot()))
			assert.Equal(t, rev, store.Revision())
		})
	}
}

func TestAddIdeaCollapsesDuplicateLinks(t *testing.T) {
	store, _ := newTestStore(t, StoreOptions{})
	a := addIdea(t, store, "A")
	b := addIdea(t, store, "B", a.ID, a.ID)

	assert.Equal(t, []string{a.ID}, b.LinkedIdeaIDs)
	assert.Equal(t, []string{b.ID}, mustIdea(t, store, a.ID).LinkedIdeaIDs)
}

func TestAddIdeaLinkLimits(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{Domain: &config.DomainConfig{MaxLinksPerIdea: 1}})
	a := addIdea(t, store, "A")
	b := addIdea(t, store, "B")

	_, err := store.AddIdea(ctx, commands.AddIdeaCommand{Title: "C", Content: "x", VibeID: "1", LinkedIdeaIDs: []string{a.ID, b.ID}})
	assert.True(t, pkgerrors.IsValidation(err))

	// the reciprocal side is held to the same limit as LinkIdeas
	c := addIdea(t, store, "C", b.ID)
	_, err = store.AddIdea(ctx, commands.AddIdeaCommand{Title: "D", Content: "x", VibeID: "1", LinkedIdeaIDs: []string{b.ID}})
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, []string{c.ID}, mustIdea(t, store, b.ID).LinkedIdeaIDs)
	assert.Len(t, store.ActiveIdeas(), 3)

	require.NoError(t, store.ArchiveIdea(ctx, a.ID))
	_, err = store.AddIdea(ctx, commands.AddIdeaCommand{Title: "C", Content: "x", VibeID: "1", LinkedIdeaIDs: []string{a.ID}})
	assert.True(t, pkgerrors.IsValidation(err), "archived targets are refused when not allowed")
}

func TestVibeDeletionGuard(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})

	custom, err := store.AddVibe(ctx, "Work")
	require.NoError(t, err)
	_, err = store.AddIdea(ctx, commands.AddIdeaCommand{Title: "t", Content: "x", VibeID: custom.ID})
	require.NoError(t, err)
	before := store.ExportSnapshot()

	err = store.DeleteVibe(ctx, "1")
	assert.True(t, pkgerrors.IsConflict(err), "built-in")

	err = store.DeleteVibe(ctx, custom.ID)
	assert.True(t, pkgerrors.IsConflict(err), "referenced")

	err = store.DeleteVibe(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	assert.True(t, before.Equal(store.ExportSnapshot()))

	unused, err := store.AddVibe(ctx, "Unused")
	require.NoError(t, err)
	require.NoError(t, store.DeleteVibe(ctx, unused.ID))
	_, ok := store.VibesByID()[unused.ID]
	assert.False(t, ok)
}

func TestAddVibe(t *testing.T) {
	ctx := context.Background()

	t.Run("empty name", func(t *testing.T) {
		store, _ := newTestStore(t, StoreOptions{})
		_, err := store.AddVibe(ctx, "   ")
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("duplicate names allowed by default", func(t *testing.T) {
		store, _ := newTestStore(t, StoreOptions{})
		_, err := store.AddVibe(ctx, "🚀 Project")
		require.NoError(t, err)
		assert.Len(t, store.Vibes(), 4)
	})

	t.Run("duplicate names rejected when required", func(t *testing.T) {
		store, _ := newTestStore(t, StoreOptions{Domain: &config.DomainConfig{RequireUniqueVibeNames: true}})
		_, err := store.AddVibe(ctx, "🚀 project")
		assert.True(t, pkgerrors.IsValidation(err))
		assert.Len(t, store.Vibes(), 3)
	})

	t.Run("trims name", func(t *testing.T) {
		store, _ := newTestStore(t, StoreOptions{})
		v, err := store.AddVibe(ctx, "  Work ")
		require.NoError(t, err)
		assert.Equal(t, "Work", v.Name)
		assert.NotEmpty(t, v.ID)
	})
}

func TestTogglePinIgnoredForArchived(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})
	a := addIdea(t, store, "A")
	require.NoError(t, store.ArchiveIdea(ctx, a.ID))
	rev := store.Revision()

	require.NoError(t, store.TogglePinIdea(ctx, a.ID))
	assert.False(t, mustIdea(t, store, a.ID).IsPinned)
	assert.Equal(t, rev, store.Revision(), "nothing was written")
}

func TestOperationsOnMissingIdeasAreNoOps(t *testing.T) {
	ctx := context.Background()
	store, adapter := newTestStore(t, StoreOptions{})

	assert.NoError(t, store.ArchiveIdea(ctx, "ghost"))
	assert.NoError(t, store.UnarchiveIdea(ctx, "ghost"))
	assert.NoError(t, store.TogglePinIdea(ctx, "ghost"))
	assert.NoError(t, store.DeleteIdea(ctx, "ghost"))
	assert.Zero(t, adapter.applied)
}

func TestActiveAndArchivedOrdering(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})
	t1 := addIdea(t, store, "t1")
	t2 := addIdea(t, store, "t2")
	t3 := addIdea(t, store, "t3")
	require.NoError(t, store.TogglePinIdea(ctx, t2.ID))

	assert.Equal(t, []string{t2.ID, t3.ID, t1.ID}, ideaIDs(store.ActiveIdeas()))

	require.NoError(t, store.ArchiveIdea(ctx, t1.ID))
	require.NoError(t, store.ArchiveIdea(ctx, t3.ID))
	assert.Equal(t, []string{t3.ID, t1.ID}, ideaIDs(store.ArchivedIdeas()))
	assert.Equal(t, []string{t2.ID}, ideaIDs(store.ActiveIdeas()))
}

func TestLinkAndUnlink(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})
	a := addIdea(t, store, "A")
	b := addIdea(t, store, "B")

	require.NoError(t, store.LinkIdeas(ctx, a.ID, b.ID))
	assert.Equal(t, []string{b.ID}, mustIdea(t, store, a.ID).LinkedIdeaIDs)
	assert.Equal(t, []string{a.ID}, mustIdea(t, store, b.ID).LinkedIdeaIDs)

	rev := store.Revision()
	require.NoError(t, store.LinkIdeas(ctx, b.ID, a.ID))
	assert.Equal(t, rev, store.Revision(), "already linked")

	assert.True(t, pkgerrors.IsValidation(store.LinkIdeas(ctx, a.ID, a.ID)))
	assert.True(t, pkgerrors.IsNotFound(store.LinkIdeas(ctx, a.ID, "ghost")))

	require.NoError(t, store.UnlinkIdeas(ctx, b.ID, a.ID))
	assert.Empty(t, mustIdea(t, store, a.ID).LinkedIdeaIDs)
	assert.Empty(t, mustIdea(t, store, b.ID).LinkedIdeaIDs)
}

func TestLinksStaySymmetric(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})

	var ids []string
	for i := 0; i < 6; i++ {
		idea := addIdea(t, store, "idea", ids...)
		ids = append(ids, idea.ID)
		require.True(t, store.ExportSnapshot().LinksAreSymmetric())
	}

	require.NoError(t, store.UnlinkIdeas(ctx, ids[0], ids[5]))
	require.NoError(t, store.DeleteIdea(ctx, ids[2]))
	require.NoError(t, store.ArchiveIdea(ctx, ids[3]))
	require.NoError(t, store.LinkIdeas(ctx, ids[0], ids[5]))
	require.NoError(t, store.DeleteIdea(ctx, ids[4]))

	assert.True(t, store.ExportSnapshot().LinksAreSymmetric())
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})
	v, err := store.AddVibe(ctx, "Work")
	require.NoError(t, err)
	a := addIdea(t, store, "A")
	_, err = store.AddIdea(ctx, commands.AddIdeaCommand{Title: "B", Content: "x", VibeID: v.ID, LinkedIdeaIDs: []string{a.ID}})
	require.NoError(t, err)
	require.NoError(t, store.TogglePinIdea(ctx, a.ID))

	exported := store.ExportSnapshot()
	require.NoError(t, store.ImportSnapshot(ctx, exported))
	assert.True(t, exported.Equal(store.ExportSnapshot()))

	fresh, _ := newTestStore(t, StoreOptions{})
	require.NoError(t, fresh.ImportSnapshot(ctx, exported))
	assert.True(t, exported.Equal(fresh.ExportSnapshot()))
}

func TestImportNormalizes(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})

	err := store.ImportSnapshot(ctx, entities.State{
		Vibes: []entities.Vibe{{ID: "w", Name: "Work"}},
		Ideas: []entities.Idea{
			{ID: "a", Title: "A", VibeID: "w", Timestamp: 10, LinkedIdeaIDs: []string{"b", "a", "ghost"}},
			{ID: "b", Title: "B", VibeID: "w", Timestamp: 20, IsArchived: true, IsPinned: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, mustIdea(t, store, "b").LinkedIdeaIDs)
	assert.Equal(t, []string{"b"}, mustIdea(t, store, "a").LinkedIdeaIDs)
	assert.False(t, mustIdea(t, store, "b").IsPinned)
	assert.Len(t, store.Vibes(), 4)

	// new ideas sort after imported ones
	c := addIdea(t, store, "C")
	assert.Greater(t, c.Timestamp, int64(20))
}

func TestImportRejectsMalformedSnapshotAtomically(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, StoreOptions{})
	addIdea(t, store, "A")
	before := store.ExportSnapshot()

	err := store.ImportSnapshot(ctx, entities.State{Vibes: []entities.Vibe{}})
	assert.True(t, pkgerrors.IsFormat(err))

	err = store.ImportSnapshot(ctx, entities.State{
		Vibes: []entities.Vibe{},
		Ideas: []entities.Idea{{ID: "x", VibeID: "1"}, {ID: "x", VibeID: "1"}},
	})
	assert.True(t, pkgerrors.IsValidation(err))

	assert.True(t, before.Equal(store.ExportSnapshot()))
}

func TestPersistenceFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store, adapter := newTestStore(t, StoreOptions{})
	a := addIdea(t, store, "A")
	before := store.ExportSnapshot()
	rev := store.Revision()

	adapter.fail(errors.New("disk full"))

	_, err := store.AddIdea(ctx, commands.AddIdeaCommand{Title: "B", Content: "x", VibeID: "1", LinkedIdeaIDs: []string{a.ID}})
	assert.True(t, pkgerrors.IsPersistence(err))
	assert.True(t, pkgerrors.IsPersistence(store.DeleteIdea(ctx, a.ID)))
	assert.True(t, pkgerrors.IsPersistence(store.ArchiveIdea(ctx, a.ID)))
	assert.True(t, pkgerrors.IsPersistence(store.ImportSnapshot(ctx, entities.NewState())))

	assert.True(t, before.Equal(store.ExportSnapshot()))
	assert.Equal(t, rev, store.Revision())

	adapter.fail(nil)
	addIdea(t, store, "B", a.ID)
	assert.Len(t, store.ActiveIdeas(), 2)
}

func TestLostRevisionRaceIsConflict(t *testing.T) {
	ctx := context.Background()
	store, adapter := newTestStore(t, StoreOptions{})
	a := addIdea(t, store, "A")

	adapter.fail(fmt.Errorf("backend: %w", ports.ErrRevisionConflict))
	err := store.TogglePinIdea(ctx, a.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict))
	assert.ErrorIs(t, err, ports.ErrRevisionConflict)
	assert.False(t, mustIdea(t, store, a.ID).IsPinned)

	adapter.fail(nil)
	require.NoError(t, store.TogglePinIdea(ctx, a.ID))
	assert.True(t, mustIdea(t, store, a.ID).IsPinned)
}

// pullOnly hides an adapter's push channel so a store only learns about
// other writers when a commit is rejected
type pullOnly struct{ ports.PersistenceAdapter }

func TestStaleWriterRecomputesOnFreshState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "u1.json")

	first, err := NewIdeaStore(ctx, pullOnly{file.New(path, nil)}, StoreOptions{UserID: "u1"})
	require.NoError(t, err)
	defer first.Close()
	x := addIdea(t, first, "X")
	y := addIdea(t, first, "Y")

	second, err := NewIdeaStore(ctx, pullOnly{file.New(path, nil)}, StoreOptions{UserID: "u1"})
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.LinkIdeas(ctx, y.ID, x.ID))

	// first has not seen the link; its delete must not leave y pointing at x
	require.NoError(t, first.DeleteIdea(ctx, x.ID))
	assert.Empty(t, mustIdea(t, first, y.ID).LinkedIdeaIDs)

	snap, err := file.New(path, nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.Revision(4), snap.Revision)
	require.Len(t, snap.State.Ideas, 1)
	assert.Equal(t, y.ID, snap.State.Ideas[0].ID)
	assert.Empty(t, snap.State.Ideas[0].LinkedIdeaIDs)
	assert.True(t, snap.State.LinksAreSymmetric())
}

func TestSlowBackendTimesOut(t *testing.T) {
	store, adapter := newTestStore(t, StoreOptions{PersistTimeout: 20 * time.Millisecond})
	adapter.mu.Lock()
	adapter.block = true
	adapter.mu.Unlock()

	_, err := store.AddVibe(context.Background(), "Work")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeTimeout))
	assert.Len(t, store.Vibes(), 3)
}

func TestPushedChangesReplaceLocalView(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend(nil)

	phone, err := NewIdeaStore(ctx, backend.Connect("u1"), StoreOptions{UserID: "u1"})
	require.NoError(t, err)
	defer phone.Close()
	laptop, err := NewIdeaStore(ctx, backend.Connect("u1"), StoreOptions{UserID: "u1"})
	require.NoError(t, err)
	defer laptop.Close()

	a := addIdea(t, phone, "A")
	require.Eventually(t, func() bool {
		_, err := laptop.Idea(a.ID)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, phone.TogglePinIdea(ctx, a.ID))
	require.Eventually(t, func() bool {
		idea, err := laptop.Idea(a.ID)
		return err == nil && idea.IsPinned
	}, time.Second, 5*time.Millisecond)

	// a write on the laptop after the phone's commits sees both
	b := addIdea(t, laptop, "B", a.ID)
	assert.Equal(t, []string{b.ID}, mustIdea(t, laptop, a.ID).LinkedIdeaIDs)

	require.Eventually(t, func() bool {
		idea, err := phone.Idea(a.ID)
		return err == nil && len(idea.LinkedIdeaIDs) == 1 && idea.IsPinned
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, phone.Revision(), laptop.Revision())
}

func TestHandleChangeRevisionRules(t *testing.T) {
	store, _ := newTestStore(t, StoreOptions{})
	a := addIdea(t, store, "A")
	rev := store.Revision()

	stale := a.Clone()
	stale.Title = "stale"
	store.handleChange(ports.Change{Revision: rev, Operations: []ports.Operation{ports.PutIdea(ports.OperationUpdate, stale)}})
	assert.Equal(t, "A", mustIdea(t, store, a.ID).Title)

	fresh := a.Clone()
	fresh.Title = "fresh"
	store.handleChange(ports.Change{Revision: rev + 1, Operations: []ports.Operation{ports.PutIdea(ports.OperationUpdate, fresh)}})
	assert.Equal(t, "fresh", mustIdea(t, store, a.ID).Title)
	assert.Equal(t, rev+1, store.Revision())

	// a gap triggers a reload from the durable state, which never saw "fresh"
	store.handleChange(ports.Change{Revision: rev + 5})
	assert.Equal(t, "A", mustIdea(t, store, a.ID).Title)
	assert.Equal(t, rev, store.Revision())
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	store, adapter := newTestStore(t, StoreOptions{Publisher: publisher})

	a := addIdea(t, store, "A")
	require.NoError(t, store.TogglePinIdea(ctx, a.ID))
	require.NoError(t, store.ArchiveIdea(ctx, a.ID))

	adapter.fail(errors.New("down"))
	_ = store.DeleteIdea(ctx, a.ID)
	adapter.fail(nil)

	assert.Equal(t, []string{events.TypeIdeaCreated, events.TypeIdeaPinToggled, events.TypeIdeaArchived}, publisher.published())
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("bus down")}
	store, _ := newTestStore(t, StoreOptions{Publisher: publisher})

	_, err := store.AddVibe(context.Background(), "Work")
	assert.NoError(t, err)
	assert.Len(t, store.Vibes(), 4)
}

func TestReadViewsAreCopies(t *testing.T) {
	store, _ := newTestStore(t, StoreOptions{})
	a := addIdea(t, store, "A")
	b := addIdea(t, store, "B", a.ID)

	view := store.ActiveIdeas()
	view[0].LinkedIdeaIDs[0] = "tampered"
	view[0].Title = "tampered"

	assert.Equal(t, "B", mustIdea(t, store, b.ID).Title)
	assert.Equal(t, []string{a.ID}, mustIdea(t, store, b.ID).LinkedIdeaIDs)
}

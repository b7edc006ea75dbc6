package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ideapardaz/application/commands"
	"ideapardaz/application/ports"
	"ideapardaz/application/queries"
	"ideapardaz/domain/config"
	"ideapardaz/domain/core/entities"
	"ideapardaz/domain/core/valueobjects"
	"ideapardaz/domain/events"
	pkgerrors "ideapardaz/pkg/errors"

	"go.uber.org/zap"
)

// DefaultPersistTimeout bounds every durable call made by the store
const DefaultPersistTimeout = 10 * time.Second

// StoreOptions configures an IdeaStore
type StoreOptions struct {
	UserID         string
	PersistTimeout time.Duration
	Domain         *config.DomainConfig
	Clock          *valueobjects.Clock
	Publisher      ports.EventPublisher
	Metrics        ports.StoreMetrics
	Logger         *zap.Logger
}

func (o StoreOptions) withDefaults() StoreOptions {
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = DefaultPersistTimeout
	}
	if o.Domain == nil {
		o.Domain = config.DefaultDomainConfig()
	}
	if o.Clock == nil {
		o.Clock = valueobjects.NewClock()
	}
	if o.Metrics == nil {
		o.Metrics = ports.NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// IdeaStore is the single source of truth for one user's ideas and vibes.
//
// Mutations are serialized end to end: the durable batch is committed first
// and the in-memory view is swapped only after the adapter acknowledges it.
// Readers always see the last committed state.
type IdeaStore struct {
	userID         string
	adapter        ports.PersistenceAdapter
	publisher      ports.EventPublisher
	metrics        ports.StoreMetrics
	clock          *valueobjects.Clock
	domain         *config.DomainConfig
	persistTimeout time.Duration
	logger         *zap.Logger

	// writeMu serializes mutations, pushed changes and reloads
	writeMu sync.Mutex

	// mu guards the fields below; state is never modified in place
	mu       sync.RWMutex
	state    entities.State
	revision ports.Revision
	stale    bool

	cancelSubscription context.CancelFunc
	unsubscribe        func()
	closeOnce          sync.Once
}

// NewIdeaStore loads the durable state through adapter and, when the adapter
// pushes external updates, subscribes to them.
func NewIdeaStore(ctx context.Context, adapter ports.PersistenceAdapter, opts StoreOptions) (*IdeaStore, error) {
	opts = opts.withDefaults()

	s := &IdeaStore{
		userID:         opts.UserID,
		adapter:        adapter,
		publisher:      opts.Publisher,
		metrics:        opts.Metrics,
		clock:          opts.Clock,
		domain:         opts.Domain,
		persistTimeout: opts.PersistTimeout,
		logger:         opts.Logger.With(zap.String("userID", opts.UserID)),
	}

	s.writeMu.Lock()
	err := s.reloadLocked(ctx)
	s.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	if sub, ok := adapter.(ports.Subscriber); ok {
		subCtx, cancel := context.WithCancel(context.Background())
		unsubscribe, err := sub.Subscribe(subCtx, s.handleChange)
		if err != nil {
			cancel()
			return nil, pkgerrors.NewPersistenceError("subscribe", err)
		}
		s.cancelSubscription = cancel
		s.unsubscribe = unsubscribe
	}

	s.logger.Info("Idea store opened",
		zap.Int("ideas", len(s.state.Ideas)),
		zap.Int("vibes", len(s.state.Vibes)),
		zap.Uint64("revision", uint64(s.revision)),
	)
	return s, nil
}

// Close stops the subscription and closes the adapter
func (s *IdeaStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		if s.cancelSubscription != nil {
			s.cancelSubscription()
		}
		err = s.adapter.Close()
	})
	return err
}

// UserID returns the owner of the store
func (s *IdeaStore) UserID() string {
	return s.userID
}

// Reload discards the in-memory view and reads the durable state again
func (s *IdeaStore) Reload(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *IdeaStore) reloadLocked(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	snap, err := s.adapter.Load(pctx)
	if err != nil {
		return persistenceError(pctx, "load", err)
	}

	s.metrics.RecordReload()
	state := snap.State.WithBuiltinVibes()
	if state.Ideas == nil {
		state.Ideas = []entities.Idea{}
	}
	ports.SortIdeas(state.Ideas)
	s.clock.Observe(state.MaxTimestamp())

	s.mu.Lock()
	s.state = state
	s.revision = snap.Revision
	s.stale = false
	s.mu.Unlock()
	return nil
}

// mutation computes the next state from a private copy of the current one.
// Returning no operations means there is nothing to commit.
type mutation func(next *entities.State) ([]ports.Operation, []events.DomainEvent, error)

// conflictRetries bounds how often a mutation is recomputed on a freshly
// loaded view after another writer committed first
const conflictRetries = 2

// commit runs a mutation as one durable batch and swaps the in-memory view
// only after the batch is acknowledged. Events are published once the write
// lock is released.
func (s *IdeaStore) commit(ctx context.Context, name string, mutate mutation) (err error) {
	defer func() { s.metrics.RecordStoreOperation(name, err) }()

	evts, err := s.commitLocked(ctx, name, mutate)
	if err != nil {
		return err
	}
	s.publish(ctx, evts)
	return nil
}

func (s *IdeaStore) commitLocked(ctx context.Context, name string, mutate mutation) ([]events.DomainEvent, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for attempt := 0; ; attempt++ {
		if s.isStale() {
			if err := s.reloadLocked(ctx); err != nil {
				return nil, err
			}
		}

		s.mu.RLock()
		next := s.state.Clone()
		current := s.revision
		s.mu.RUnlock()

		ops, evts, err := mutate(&next)
		if err != nil || len(ops) == 0 {
			return nil, err
		}
		ports.SortIdeas(next.Ideas)

		batch := ports.Batch{Operations: ops, Token: valueobjects.NewBatchToken(), BaseRevision: current}
		pctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
		revision, err := s.adapter.ApplyBatch(pctx, batch)
		cancel()

		switch {
		case errors.Is(err, ports.ErrRevisionConflict):
			s.metrics.RecordConflict()
			if rerr := s.reloadLocked(ctx); rerr != nil {
				s.markStale()
				return nil, rerr
			}
			if attempt == conflictRetries {
				return nil, pkgerrors.NewConflictError("ideas were changed elsewhere, try again").WithCause(err)
			}
			s.logger.Debug("Lost revision race, recomputing",
				zap.String("operation", name),
				zap.Int("attempt", attempt+1),
			)
			continue
		case err != nil:
			s.logger.Warn("Durable commit failed, state unchanged",
				zap.String("operation", name),
				zap.Int("writes", len(ops)),
				zap.Error(err),
			)
			return nil, persistenceError(pctx, name, err)
		}

		if revision == current+1 {
			s.mu.Lock()
			s.state = next
			s.revision = revision
			s.mu.Unlock()
		} else {
			// the adapter reported a replayed batch at another revision
			s.metrics.RecordConflict()
			s.logger.Debug("Revision gap after commit, reloading",
				zap.Uint64("expected", uint64(current+1)),
				zap.Uint64("got", uint64(revision)),
			)
			if err := s.reloadLocked(ctx); err != nil {
				s.logger.Warn("Reload after commit failed, serving committed batch until next write",
					zap.String("operation", name), zap.Error(err))
				s.mu.Lock()
				s.state = next
				s.revision = revision
				s.stale = true
				s.mu.Unlock()
			}
		}

		s.logger.Debug("Committed batch",
			zap.String("operation", name),
			zap.Int("writes", len(ops)),
			zap.Uint64("revision", uint64(revision)),
		)
		return evts, nil
	}
}

func (s *IdeaStore) markStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

func (s *IdeaStore) isStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// publish delivers events after commit. Failures are logged only: the
// state they describe is already durable.
func (s *IdeaStore) publish(ctx context.Context, evts []events.DomainEvent) {
	if s.publisher == nil || len(evts) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, evts...); err != nil {
		s.logger.Warn("Failed to publish domain events",
			zap.Int("events", len(evts)),
			zap.Error(err),
		)
	}
}

// handleChange applies a batch pushed by the adapter. Each affected entity is
// replaced wholesale; stale changes are ignored and gaps force a reload.
func (s *IdeaStore) handleChange(change ports.Change) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	current := s.revision
	state := s.state
	s.mu.RUnlock()

	switch {
	case change.Revision <= current:
		return
	case change.Revision == current+1:
		next := ports.Apply(state, change.Operations).WithBuiltinVibes()
		s.clock.Observe(next.MaxTimestamp())
		s.mu.Lock()
		s.state = next
		s.revision = change.Revision
		s.mu.Unlock()
		s.logger.Debug("Applied pushed change",
			zap.Uint64("revision", uint64(change.Revision)),
			zap.Int("writes", len(change.Operations)),
		)
	default:
		s.logger.Debug("Pushed change skips revisions, reloading",
			zap.Uint64("current", uint64(current)),
			zap.Uint64("pushed", uint64(change.Revision)),
		)
		if err := s.reloadLocked(context.Background()); err != nil {
			s.logger.Warn("Reload after pushed change failed", zap.Error(err))
			s.markStale()
		}
	}
}

// persistenceError maps adapter failures onto the error taxonomy. Errors that
// already carry a persistence type pass through unchanged.
func persistenceError(ctx context.Context, op string, err error) error {
	if pkgerrors.IsPersistence(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return pkgerrors.NewTimeoutError(op).WithCause(err)
	}
	return pkgerrors.NewPersistenceError(op, err)
}

// Vibe operations

// AddVibe creates a vibe with a fresh id
func (s *IdeaStore) AddVibe(ctx context.Context, name string) (entities.Vibe, error) {
	cmd := commands.AddVibeCommand{Name: strings.TrimSpace(name)}
	if err := cmd.Validate(); err != nil {
		return entities.Vibe{}, err
	}

	var created entities.Vibe
	err := s.commit(ctx, "add_vibe", func(next *entities.State) ([]ports.Operation, []events.DomainEvent, error) {
		if s.domain.RequireUniqueVibeNames {
			for _, v := range next.Vibes {
				if strings.EqualFold(v.Name, cmd.Name) {
					return nil, nil, pkgerrors.NewValidationErrorf("vibe %q already exists", cmd.Name)
				}
			}
		}

		vibe, err := entities.NewVibe(valueobjects.NewID(), cmd.Name)
		if err != nil {
			return nil, nil, err
		}
		next.Vibes = append(next.Vibes, vibe)
		created = vibe

		return []ports.Operation{ports.PutVibe(ports.OperationCreate, vibe)},
			[]events.DomainEvent{events.NewVibeCreated(s.userID, vibe.ID, vibe.Name, time.Now())},
			nil
	})
	if err != nil {
		return entities.Vibe{}, err
	}
	return created, nil
}

// DeleteVibe removes a vibe that is neither built-in nor referenced by an idea
func (s *IdeaStore) DeleteVibe(ctx context.Context, id string) error {
	return s.commit(ctx, "delete_vibe", func(next *entities.State) ([]ports.Operation, []events.DomainEvent, error) {
		idx := next.FindVibe(id)
		if idx < 0 {
			return nil, nil, pkgerrors.NewNotFoundError("vibe")
		}
		if entities.IsBuiltinVibe(id) {
			return nil, nil, pkgerrors.NewConflictError("built-in vibes cannot be deleted")
		}
		if next.IsVibeReferenced(id) {
			return nil, nil, pkgerrors.NewConflictError("vibe is used by existing ideas")
		}

		vibe := next.Vibes[idx]
		next.Vibes = append(next.Vibes[:idx], next.Vibes[idx+1:]...)

		return []ports.Operation{ports.DeleteVibe(id)},
			[]events.DomainEvent{events.NewVibeDeleted(s.userID, vibe.ID, vibe.Name, time.Now())},
			nil
	})
}

// Idea operations

// AddIdea captures a new idea and links it both ways to every idea it names.
// The new idea and all reciprocal links are one durable batch.
func (s *IdeaStore) AddIdea(ctx context.Context, cmd commands.AddIdeaCommand) (entities.Idea, error) {
	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return entities.Idea{}, err
	}

	var created entities.Idea
	err := s.commit(ctx, "add_idea", func(next *entities.State) ([]ports.Operation, []events.DomainEvent, error) {
		if next.FindVibe(cmd.VibeID) < 0 {
			return nil, nil, pkgerrors.NewValidationErrorf("vibe %q does not exist", cmd.VibeID)
		}

		idea := entities.Idea{
			ID:            valueobjects.NewID(),
			Title:         cmd.Title,
			Content:       cmd.Content,
			VibeID:        cmd.VibeID,
			LinkedIdeaIDs: []string{},
		}
		for _, target := range cmd.LinkedIdeaIDs {
			if target == idea.ID {
				return nil, nil, pkgerrors.NewValidationError("an idea cannot link to itself")
			}
			idx := next.FindIdea(target)
			if idx < 0 {
				return nil, nil, pkgerrors.NewValidationErrorf("linked idea %q does not exist", target)
			}
			if next.Ideas[idx].IsArchived && !s.domain.AllowLinksToArchived {
				return nil, nil, pkgerrors.NewValidationErrorf("linked idea %q is archived", target)
			}
			if limit := s.domain.MaxLinksPerIdea; limit > 0 && len(next.Ideas[idx].LinkedIdeaIDs) >= limit {
				return nil, nil, pkgerrors.NewValidationErrorf("linked idea %q already has %d links", target, limit)
			}
			idea.Link(target)
		}
		if limit := s.domain.MaxLinksPerIdea; limit > 0 && len(idea.LinkedIdeaIDs) > limit {
			return nil, nil, pkgerrors.NewValidationErrorf("an idea may link to at most %d ideas", limit)
		}
		idea.Timestamp = s.clock.Next()

		ops := make([]ports.Operation, 0, 1+len(idea.LinkedIdeaIDs))
		ops = append(ops, ports.PutIdea(ports.OperationCreate, idea))
		for _, target := range idea.LinkedIdeaIDs {
			idx := next.FindIdea(target)
			next.Ideas[idx].Link(idea.ID)
			ops = append(ops, ports.PutIdea(ports.OperationUpdate, next.Ideas[idx]))
		}
		next.Ideas = append([]entities.Idea{idea}, next.Ideas...)
		created = idea.Clone()

		return ops,
			[]events.DomainEvent{events.NewIdeaCreated(s.userID, idea.ID, idea.VibeID, idea.LinkedIdeaIDs, time.Now())},
			nil
	})
	if err != nil {
		return entities.Idea{}, err
	}

	s.logger.Info("Idea created",
		zap.String("ideaID", created.ID),
		zap.String("vibeID", created.VibeID),
		zap.Int("links", len(created.LinkedIdeaIDs)),
	)
	return created, nil
}

// updateFlags commits a single-idea flag change. Missing ideas and changes
// that leave the idea as it was are no-ops.
func (s *IdeaStore) updateFlags(ctx context.Context, name, eventType, id string, change func(*entities.Idea)) error {
	return s.commit(ctx, name, func(next *entities.State) ([]ports.Operation, []events.DomainEvent, error) {
		idx := next.FindIdea(id)
		if idx < 0 {
			return nil, nil, nil
		}
		before := next.Ideas[idx].Clone()
		change(&next.Ideas[idx])
		after := next.Ideas[idx]
		if before.Equal(after) {
			return nil, nil, nil
		}

		return []ports.Operation{ports.PutIdea(ports.OperationUpdate, after)},
			[]events.DomainEvent{events.NewIdeaFlagsChanged(eventType, s.userID, id, after.IsArchived, after.IsPinned, time.Now())},
			nil
	})
}

// ArchiveIdea archives an idea and clears its pin
func (s *IdeaStore) ArchiveIdea(ctx context.Context, id string) error {
	return s.updateFlags(ctx, "archive_idea", events.TypeIdeaArchived, id, func(i *entities.Idea) { i.Archive() })
}

// UnarchiveIdea returns an idea to the active list; its pin stays cleared
func (s *IdeaStore) UnarchiveIdea(ctx context.Context, id string) error {
	return s.updateFlags(ctx, "unarchive_idea", events.TypeIdeaUnarchived, id, func(i *entities.Idea) { i.Unarchive() })
}

// TogglePinIdea flips the pin of an active idea. Archived ideas are left alone.
func (s *IdeaStore) TogglePinIdea(ctx context.Context, id string) error {
	return s.updateFlags(ctx, "toggle_pin", events.TypeIdeaPinToggled, id, func(i *entities.Idea) {
		if !i.TogglePin() {
			s.logger.Debug("Pin ignored for archived idea", zap.String("ideaID", id))
		}
	})
}

// DeleteIdea removes an idea and purges its id from every other idea's links
// in the same batch.
func (s *IdeaStore) DeleteIdea(ctx context.Context, id string) error {
	return s.commit(ctx, "delete_idea", func(next *entities.State) ([]ports.Operation, []events.DomainEvent, error) {
		idx := next.FindIdea(id)
		if idx < 0 {
			return nil, nil, nil
		}

		ops := make([]ports.Operation, 0, 1+len(next.Ideas[idx].LinkedIdeaIDs))
		var unlinked []string
		for i := range next.Ideas {
			if i == idx {
				continue
			}
			if next.Ideas[i].Unlink(id) {
				unlinked = append(unlinked, next.Ideas[i].ID)
				ops = append(ops, ports.PutIdea(ports.OperationUpdate, next.Ideas[i]))
			}
		}
		ops = append(ops, ports.DeleteIdea(id))
		next.Ideas = append(next.Ideas[:idx], next.Ideas[idx+1:]...)

		return ops,
			[]events.DomainEvent{events.NewIdeaDeleted(s.userID, id, unlinked, time.Now())},
			nil
	})
}

// LinkIdeas links two existing ideas both ways
func (s *IdeaStore) LinkIdeas(ctx context.Context, sourceID, targetID string) error {
	if sourceID == targetID {
		return pkgerrors.NewValidationError("an idea cannot link to itself")
	}
	return s.commit(ctx, "link_ideas", func(next *entities.State) ([]ports.Operation, []events.DomainEvent, error) {
		si, ti := next.FindIdea(sourceID), next.FindIdea(targetID)
		if si < 0 || ti < 0 {
			return nil, nil, pkgerrors.NewNotFoundError("idea")
		}
		if !s.domain.AllowLinksToArchived && (next.Ideas[si].IsArchived || next.Ideas[ti].IsArchived) {
			return nil, nil, pkgerrors.NewValidationError("archived ideas cannot be linked")
		}

		source, target := &next.Ideas[si], &next.Ideas[ti]
		if source.IsLinkedTo(targetID) && target.IsLinkedTo(sourceID) {
			return nil, nil, nil
		}
		if limit := s.domain.MaxLinksPerIdea; limit > 0 {
			if (!source.IsLinkedTo(targetID) && len(source.LinkedIdeaIDs) >= limit) ||
				(!target.IsLinkedTo(sourceID) && len(target.LinkedIdeaIDs) >= limit) {
				return nil, nil, pkgerrors.NewValidationErrorf("an idea may link to at most %d ideas", limit)
			}
		}
		source.Link(targetID)
		target.Link(sourceID)

		return []ports.Operation{
				ports.PutIdea(ports.OperationUpdate, *source),
				ports.PutIdea(ports.OperationUpdate, *target),
			},
			[]events.DomainEvent{events.NewIdeasLinked(s.userID, sourceID, targetID, time.Now())},
			nil
	})
}

// UnlinkIdeas removes the link between two ideas from both sides
func (s *IdeaStore) UnlinkIdeas(ctx context.Context, sourceID, targetID string) error {
	return s.commit(ctx, "unlink_ideas", func(next *entities.State) ([]ports.Operation, []events.DomainEvent, error) {
		si, ti := next.FindIdea(sourceID), next.FindIdea(targetID)
		if si < 0 || ti < 0 {
			return nil, nil, pkgerrors.NewNotFoundError("idea")
		}

		var ops []ports.Operation
		if next.Ideas[si].Unlink(targetID) {
			ops = append(ops, ports.PutIdea(ports.OperationUpdate, next.Ideas[si]))
		}
		if next.Ideas[ti].Unlink(sourceID) {
			ops = append(ops, ports.PutIdea(ports.OperationUpdate, next.Ideas[ti]))
		}
		if len(ops) == 0 {
			return nil, nil, nil
		}
		return ops,
			[]events.DomainEvent{events.NewIdeasUnlinked(s.userID, sourceID, targetID, time.Now())},
			nil
	})
}

// Snapshot operations

// ExportSnapshot returns a deep copy of the current state
func (s *IdeaStore) ExportSnapshot() entities.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ImportSnapshot replaces the whole state. The snapshot is validated and
// normalized first; on any failure the previous state stays in place.
func (s *IdeaStore) ImportSnapshot(ctx context.Context, snapshot entities.State) error {
	if err := ValidateSnapshot(snapshot); err != nil {
		return err
	}
	imported := snapshot.Normalize()
	ports.SortIdeas(imported.Ideas)

	err := s.commit(ctx, "import_snapshot", func(next *entities.State) ([]ports.Operation, []events.DomainEvent, error) {
		ops := ports.Diff(*next, imported)
		*next = imported.Clone()
		return ops,
			[]events.DomainEvent{events.NewSnapshotImported(s.userID, len(imported.Vibes), len(imported.Ideas), time.Now())},
			nil
	})
	if err != nil {
		return err
	}
	s.clock.Observe(imported.MaxTimestamp())

	s.logger.Info("Snapshot imported",
		zap.Int("ideas", len(imported.Ideas)),
		zap.Int("vibes", len(imported.Vibes)),
	)
	return nil
}

// ValidateSnapshot checks the entity level shape of an imported state.
// Links are not checked here; normalization repairs them.
func ValidateSnapshot(snapshot entities.State) error {
	if snapshot.Vibes == nil || snapshot.Ideas == nil {
		return pkgerrors.NewFormatError("snapshot must contain vibes and ideas arrays")
	}

	vibeIDs := make(map[string]struct{}, len(snapshot.Vibes))
	for i, v := range snapshot.Vibes {
		if strings.TrimSpace(v.ID) == "" {
			return pkgerrors.NewValidationErrorf("vibes[%d]: id is required", i)
		}
		if strings.TrimSpace(v.Name) == "" {
			return pkgerrors.NewValidationErrorf("vibes[%d]: name is required", i)
		}
		if _, dup := vibeIDs[v.ID]; dup {
			return pkgerrors.NewValidationErrorf("vibes[%d]: duplicate id %q", i, v.ID)
		}
		vibeIDs[v.ID] = struct{}{}
	}

	ideaIDs := make(map[string]struct{}, len(snapshot.Ideas))
	for i, idea := range snapshot.Ideas {
		if strings.TrimSpace(idea.ID) == "" {
			return pkgerrors.NewValidationErrorf("ideas[%d]: id is required", i)
		}
		if strings.TrimSpace(idea.VibeID) == "" {
			return pkgerrors.NewValidationErrorf("ideas[%d]: vibeId is required", i)
		}
		if _, dup := ideaIDs[idea.ID]; dup {
			return pkgerrors.NewValidationErrorf("ideas[%d]: duplicate id %q", i, idea.ID)
		}
		ideaIDs[idea.ID] = struct{}{}
	}
	return nil
}

// Read side

// Revision returns the durable revision the in-memory view reflects
func (s *IdeaStore) Revision() ports.Revision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// ActiveIdeas lists non-archived ideas, pinned first, newest first
func (s *IdeaStore) ActiveIdeas() []entities.Idea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries.ActiveIdeas(s.state.Ideas)
}

// ArchivedIdeas lists archived ideas, newest first
func (s *IdeaStore) ArchivedIdeas() []entities.Idea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries.ArchivedIdeas(s.state.Ideas)
}

// Ideas lists the ideas of a view
func (s *IdeaStore) Ideas(view queries.View) []entities.Idea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries.Select(view, s.state.Ideas)
}

// Idea returns a copy of one idea
func (s *IdeaStore) Idea(id string) (entities.Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.state.FindIdea(id)
	if idx < 0 {
		return entities.Idea{}, pkgerrors.NewNotFoundError(fmt.Sprintf("idea %s", id))
	}
	return s.state.Ideas[idx].Clone(), nil
}

// IdeasByID returns an id keyed lookup of all ideas
func (s *IdeaStore) IdeasByID() map[string]entities.Idea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries.IndexIdeas(s.state.Ideas)
}

// Vibes lists vibes in insertion order
func (s *IdeaStore) Vibes() []entities.Vibe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.Vibe, len(s.state.Vibes))
	copy(out, s.state.Vibes)
	return out
}

// VibesByID returns an id keyed lookup of all vibes
func (s *IdeaStore) VibesByID() map[string]entities.Vibe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries.IndexVibes(s.state.Vibes)
}

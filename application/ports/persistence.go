package ports

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ideapardaz/domain/core/entities"
)

// ErrRevisionConflict reports that another writer committed first and the
// batch was not applied
var ErrRevisionConflict = errors.New("revision conflict")

// OperationType defines the type of a durable write
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// EntityKind names the collection an operation targets
type EntityKind string

const (
	EntityIdea EntityKind = "idea"
	EntityVibe EntityKind = "vibe"
)

// Operation is one write inside a batch. Idea or Vibe carries the full
// replacement payload for create and update; both are nil for delete.
type Operation struct {
	Type   OperationType  `json:"type"`
	Entity EntityKind     `json:"entity"`
	ID     string         `json:"id"`
	Idea   *entities.Idea `json:"idea,omitempty"`
	Vibe   *entities.Vibe `json:"vibe,omitempty"`
}

// Validate checks that the payload matches the operation type
func (o Operation) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("operation %s %s: empty id", o.Type, o.Entity)
	}
	switch o.Type {
	case OperationCreate, OperationUpdate:
		switch o.Entity {
		case EntityIdea:
			if o.Idea == nil || o.Idea.ID != o.ID {
				return fmt.Errorf("operation %s idea %s: missing or mismatched payload", o.Type, o.ID)
			}
		case EntityVibe:
			if o.Vibe == nil || o.Vibe.ID != o.ID {
				return fmt.Errorf("operation %s vibe %s: missing or mismatched payload", o.Type, o.ID)
			}
		default:
			return fmt.Errorf("operation %s: unknown entity %q", o.Type, o.Entity)
		}
	case OperationDelete:
		if o.Entity != EntityIdea && o.Entity != EntityVibe {
			return fmt.Errorf("operation delete: unknown entity %q", o.Entity)
		}
	default:
		return fmt.Errorf("unknown operation type %q", o.Type)
	}
	return nil
}

// PutIdea returns a create or update operation for idea
func PutIdea(t OperationType, idea entities.Idea) Operation {
	c := idea.Clone()
	return Operation{Type: t, Entity: EntityIdea, ID: idea.ID, Idea: &c}
}

// PutVibe returns a create or update operation for vibe
func PutVibe(t OperationType, vibe entities.Vibe) Operation {
	v := vibe
	return Operation{Type: t, Entity: EntityVibe, ID: vibe.ID, Vibe: &v}
}

// DeleteIdea returns a delete operation for an idea
func DeleteIdea(id string) Operation {
	return Operation{Type: OperationDelete, Entity: EntityIdea, ID: id}
}

// DeleteVibe returns a delete operation for a vibe
func DeleteVibe(id string) Operation {
	return Operation{Type: OperationDelete, Entity: EntityVibe, ID: id}
}

// Batch is an ordered set of operations committed as one atomic unit.
// Token identifies the batch; replaying a batch with the token of the last
// committed batch must not apply it twice. BaseRevision is the revision the
// operations were computed against; adapters refuse the batch with
// ErrRevisionConflict once the durable revision has moved past it.
type Batch struct {
	Operations   []Operation `json:"operations"`
	Token        string      `json:"token"`
	BaseRevision Revision    `json:"baseRevision"`
}

// CheckBase returns an ErrRevisionConflict unless current is the revision the
// batch was computed against
func (b Batch) CheckBase(current Revision) error {
	if b.BaseRevision != current {
		return fmt.Errorf("batch computed at revision %d, durable revision is %d: %w",
			b.BaseRevision, current, ErrRevisionConflict)
	}
	return nil
}

// Validate checks every operation in the batch
func (b Batch) Validate() error {
	if len(b.Operations) == 0 {
		return fmt.Errorf("empty batch")
	}
	for _, op := range b.Operations {
		if err := op.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Revision counts committed batches. Every successful ApplyBatch yields the
// previous revision plus one.
type Revision uint64

// Snapshot is the full durable state at a revision
type Snapshot struct {
	State    entities.State
	Revision Revision
}

// Change is a batch committed by someone else, pushed to subscribers
type Change struct {
	Revision   Revision
	Operations []Operation
}

// PersistenceAdapter is the durable store behind one user's idea store
type PersistenceAdapter interface {
	// Load reads the whole state with its revision
	Load(ctx context.Context) (Snapshot, error)

	// ApplyBatch commits all operations atomically and returns the new revision
	ApplyBatch(ctx context.Context, batch Batch) (Revision, error)

	// Close releases resources held by the adapter
	Close() error
}

// Subscriber is implemented by adapters that push external changes.
// Changes arrive in revision order. An adapter may also report batches it
// committed itself; stores ignore changes they already reflect.
type Subscriber interface {
	Subscribe(ctx context.Context, onChange func(Change)) (unsubscribe func(), err error)
}

// AdapterFactory opens the persistence adapter for one user
type AdapterFactory interface {
	ForUser(ctx context.Context, userID string) (PersistenceAdapter, error)
}

// Diff returns the operations that turn from into to. Vibe creates come first
// and vibe deletes last, so no intermediate step references a missing vibe.
func Diff(from, to entities.State) []Operation {
	var vibeCreates, vibeUpdates, vibeDeletes []Operation
	var ideaCreates, ideaUpdates, ideaDeletes []Operation

	oldVibes := make(map[string]entities.Vibe, len(from.Vibes))
	for _, v := range from.Vibes {
		oldVibes[v.ID] = v
	}
	newVibes := make(map[string]struct{}, len(to.Vibes))
	for _, v := range to.Vibes {
		newVibes[v.ID] = struct{}{}
		prev, ok := oldVibes[v.ID]
		switch {
		case !ok:
			vibeCreates = append(vibeCreates, PutVibe(OperationCreate, v))
		case prev != v:
			vibeUpdates = append(vibeUpdates, PutVibe(OperationUpdate, v))
		}
	}
	for _, v := range from.Vibes {
		if _, ok := newVibes[v.ID]; !ok {
			vibeDeletes = append(vibeDeletes, DeleteVibe(v.ID))
		}
	}

	oldIdeas := make(map[string]entities.Idea, len(from.Ideas))
	for _, i := range from.Ideas {
		oldIdeas[i.ID] = i
	}
	newIdeas := make(map[string]struct{}, len(to.Ideas))
	for _, i := range to.Ideas {
		newIdeas[i.ID] = struct{}{}
		prev, ok := oldIdeas[i.ID]
		switch {
		case !ok:
			ideaCreates = append(ideaCreates, PutIdea(OperationCreate, i))
		case !prev.Equal(i):
			ideaUpdates = append(ideaUpdates, PutIdea(OperationUpdate, i))
		}
	}
	for _, i := range from.Ideas {
		if _, ok := newIdeas[i.ID]; !ok {
			ideaDeletes = append(ideaDeletes, DeleteIdea(i.ID))
		}
	}

	ops := make([]Operation, 0, len(vibeCreates)+len(vibeUpdates)+len(ideaCreates)+
		len(ideaUpdates)+len(ideaDeletes)+len(vibeDeletes))
	ops = append(ops, vibeCreates...)
	ops = append(ops, vibeUpdates...)
	ops = append(ops, ideaCreates...)
	ops = append(ops, ideaUpdates...)
	ops = append(ops, ideaDeletes...)
	ops = append(ops, vibeDeletes...)
	return ops
}

// Apply returns a copy of state with ops applied. Each touched entity is
// replaced wholesale, never merged field by field. Created or updated ideas
// are positioned newest first; vibes keep insertion order.
func Apply(state entities.State, ops []Operation) entities.State {
	out := state.Clone()
	for _, op := range ops {
		switch op.Entity {
		case EntityVibe:
			idx := out.FindVibe(op.ID)
			switch {
			case op.Type == OperationDelete:
				if idx >= 0 {
					out.Vibes = append(out.Vibes[:idx], out.Vibes[idx+1:]...)
				}
			case op.Vibe == nil:
			case idx >= 0:
				out.Vibes[idx] = *op.Vibe
			default:
				out.Vibes = append(out.Vibes, *op.Vibe)
			}
		case EntityIdea:
			idx := out.FindIdea(op.ID)
			switch {
			case op.Type == OperationDelete:
				if idx >= 0 {
					out.Ideas = append(out.Ideas[:idx], out.Ideas[idx+1:]...)
				}
			case op.Idea == nil:
			case idx >= 0:
				out.Ideas[idx] = op.Idea.Clone()
			default:
				out.Ideas = append(out.Ideas, op.Idea.Clone())
			}
		}
	}
	SortIdeas(out.Ideas)
	return out
}

// SortIdeas orders ideas newest first. The sort is stable so equal
// timestamps keep their relative order.
func SortIdeas(ideas []entities.Idea) {
	sort.SliceStable(ideas, func(i, j int) bool {
		return ideas[i].Timestamp > ideas[j].Timestamp
	})
}

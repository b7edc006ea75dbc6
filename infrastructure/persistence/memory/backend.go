package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"ideapardaz/application/ports"
	"ideapardaz/domain/core/entities"

	"go.uber.org/zap"
)

type userData struct {
	state     entities.State
	revision  ports.Revision
	lastToken string
}

// Backend is an in-process database shared by any number of connections.
// A batch committed through one connection is pushed to subscribers on the
// other connections of the same user.
type Backend struct {
	mu       sync.Mutex
	users    map[string]*userData
	subs     map[string]map[*subscription]struct{}
	nextConn uint64
	logger   *zap.Logger
}

// NewBackend creates an empty backend
func NewBackend(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		users:  make(map[string]*userData),
		subs:   make(map[string]map[*subscription]struct{}),
		logger: logger,
	}
}

// ForUser implements ports.AdapterFactory
func (b *Backend) ForUser(_ context.Context, userID string) (ports.PersistenceAdapter, error) {
	return b.Connect(userID), nil
}

// Connect opens a new connection to userID's data
func (b *Backend) Connect(userID string) *Connection {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextConn++
	return &Connection{backend: b, userID: userID, id: b.nextConn}
}

func (b *Backend) data(userID string) *userData {
	d, ok := b.users[userID]
	if !ok {
		d = &userData{state: entities.State{Vibes: []entities.Vibe{}, Ideas: []entities.Idea{}}}
		b.users[userID] = d
	}
	return d
}

// Connection is a PersistenceAdapter bound to one user
type Connection struct {
	backend *Backend
	userID  string
	id      uint64
	closed  atomic.Bool
}

var (
	_ ports.PersistenceAdapter = (*Connection)(nil)
	_ ports.Subscriber         = (*Connection)(nil)
)

// Load returns a copy of the user's state
func (c *Connection) Load(ctx context.Context) (ports.Snapshot, error) {
	if err := c.check(ctx); err != nil {
		return ports.Snapshot{}, err
	}

	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()

	d := c.backend.data(c.userID)
	return ports.Snapshot{State: d.state.Clone(), Revision: d.revision}, nil
}

// ApplyBatch applies all operations under one lock
func (c *Connection) ApplyBatch(ctx context.Context, batch ports.Batch) (ports.Revision, error) {
	if err := c.check(ctx); err != nil {
		return 0, err
	}
	if err := batch.Validate(); err != nil {
		return 0, fmt.Errorf("invalid batch: %w", err)
	}

	b := c.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.data(c.userID)
	if batch.Token != "" && batch.Token == d.lastToken {
		return d.revision, nil
	}
	if err := batch.CheckBase(d.revision); err != nil {
		return 0, err
	}

	d.state = ports.Apply(d.state, batch.Operations)
	d.revision++
	d.lastToken = batch.Token

	change := ports.Change{Revision: d.revision, Operations: cloneOps(batch.Operations)}
	for sub := range b.subs[c.userID] {
		if sub.connID != c.id {
			sub.push(change)
		}
	}

	b.logger.Debug("Applied batch",
		zap.String("userID", c.userID),
		zap.Int("operations", len(batch.Operations)),
		zap.Uint64("revision", uint64(d.revision)),
	)
	return d.revision, nil
}

// Subscribe delivers batches committed through other connections, in order,
// on a dedicated goroutine.
func (c *Connection) Subscribe(ctx context.Context, onChange func(ports.Change)) (func(), error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}

	sub := newSubscription(c.id)
	b := c.backend
	b.mu.Lock()
	if b.subs[c.userID] == nil {
		b.subs[c.userID] = make(map[*subscription]struct{})
	}
	b.subs[c.userID][sub] = struct{}{}
	b.mu.Unlock()

	go sub.run(ctx, onChange)

	return func() {
		b.mu.Lock()
		delete(b.subs[c.userID], sub)
		b.mu.Unlock()
		sub.stop()
	}, nil
}

// Close marks the connection closed
func (c *Connection) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *Connection) check(ctx context.Context) error {
	if c.closed.Load() {
		return fmt.Errorf("connection closed")
	}
	return ctx.Err()
}

func cloneOps(ops []ports.Operation) []ports.Operation {
	out := make([]ports.Operation, len(ops))
	for i, op := range ops {
		out[i] = op
		if op.Idea != nil {
			idea := op.Idea.Clone()
			out[i].Idea = &idea
		}
		if op.Vibe != nil {
			vibe := *op.Vibe
			out[i].Vibe = &vibe
		}
	}
	return out
}

// Package file stores one user's ideas and vibes as a single JSON blob,
// the way a browser keeps them in local storage. Writes replace the file
// atomically; other processes rewriting the file are observed with fsnotify.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"ideapardaz/application/ports"
	"ideapardaz/domain/core/entities"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceDelay coalesces the bursts of events a single rename produces
const debounceDelay = 50 * time.Millisecond

// blob is the on-disk document
type blob struct {
	Revision  ports.Revision  `json:"revision"`
	LastToken string          `json:"lastToken,omitempty"`
	Vibes     []entities.Vibe `json:"vibes"`
	Ideas     []entities.Idea `json:"ideas"`
}

// Adapter is a PersistenceAdapter backed by one JSON file
type Adapter struct {
	path   string
	logger *zap.Logger

	// mu serializes file access within the process and guards known
	mu    sync.Mutex
	known blob
}

var (
	_ ports.PersistenceAdapter = (*Adapter)(nil)
	_ ports.Subscriber         = (*Adapter)(nil)
)

// New creates an adapter for the file at path
func New(path string, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{path: path, logger: logger.With(zap.String("path", path))}
}

// Load reads the file. A missing file is an empty state at revision zero.
func (a *Adapter) Load(ctx context.Context) (ports.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return ports.Snapshot{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b, err := a.read()
	if err != nil {
		return ports.Snapshot{}, err
	}
	a.known = b
	return ports.Snapshot{State: toState(b), Revision: b.Revision}, nil
}

// ApplyBatch reads the current file, applies the batch and atomically
// replaces the file with the result.
func (a *Adapter) ApplyBatch(ctx context.Context, batch ports.Batch) (ports.Revision, error) {
	if err := batch.Validate(); err != nil {
		return 0, fmt.Errorf("invalid batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	current, err := a.read()
	if err != nil {
		return 0, err
	}
	if batch.Token != "" && batch.Token == current.LastToken {
		return current.Revision, nil
	}
	if err := batch.CheckBase(current.Revision); err != nil {
		return 0, err
	}

	state := ports.Apply(toState(current), batch.Operations)
	next := blob{
		Revision:  current.Revision + 1,
		LastToken: batch.Token,
		Vibes:     state.Vibes,
		Ideas:     state.Ideas,
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := a.write(next); err != nil {
		return 0, err
	}
	a.known = next
	return next.Revision, nil
}

// Subscribe watches the file's directory and pushes the difference whenever
// another writer moves the file to a newer revision.
func (a *Adapter) Subscribe(ctx context.Context, onChange func(ports.Change)) (func(), error) {
	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	stopCh := make(chan struct{})
	var once sync.Once
	go a.watchLoop(ctx, watcher, stopCh, onChange)

	a.logger.Debug("Watching data file")
	return func() { once.Do(func() { close(stopCh) }) }, nil
}

func (a *Adapter) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, stopCh <-chan struct{}, onChange func(ports.Change)) {
	defer watcher.Close()

	timer := time.NewTimer(debounceDelay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(a.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(debounceDelay)
			}

		case <-timer.C:
			if change, ok := a.detectChange(); ok {
				onChange(change)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			a.logger.Error("File watcher error", zap.Error(err))

		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// detectChange compares the file with the last revision this adapter knows
func (a *Adapter) detectChange() (ports.Change, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current, err := a.read()
	if err != nil {
		a.logger.Warn("Failed to read changed data file", zap.Error(err))
		return ports.Change{}, false
	}
	if current.Revision <= a.known.Revision {
		return ports.Change{}, false
	}

	ops := ports.Diff(toState(a.known), toState(current))
	a.known = current
	a.logger.Debug("Data file changed externally",
		zap.Uint64("revision", uint64(current.Revision)),
		zap.Int("operations", len(ops)),
	)
	return ports.Change{Revision: current.Revision, Operations: ops}, true
}

// Close is a no-op; watchers stop through their unsubscribe function
func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) read() (blob, error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return blob{Vibes: []entities.Vibe{}, Ideas: []entities.Idea{}}, nil
	}
	if err != nil {
		return blob{}, fmt.Errorf("failed to read %s: %w", a.path, err)
	}

	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return blob{}, fmt.Errorf("corrupt data file %s: %w", a.path, err)
	}
	if b.Vibes == nil {
		b.Vibes = []entities.Vibe{}
	}
	if b.Ideas == nil {
		b.Ideas = []entities.Idea{}
	}
	return b, nil
}

// write replaces the file via a synced temp file and rename
func (a *Adapter) write(b blob) error {
	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(a.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

func toState(b blob) entities.State {
	return entities.State{Vibes: b.Vibes, Ideas: b.Ideas}.Clone()
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._@-]`)

// Factory opens one file per user under a data directory
type Factory struct {
	dir    string
	logger *zap.Logger
}

// NewFactory creates a factory rooted at dir
func NewFactory(dir string, logger *zap.Logger) *Factory {
	return &Factory{dir: dir, logger: logger}
}

// ForUser implements ports.AdapterFactory
func (f *Factory) ForUser(_ context.Context, userID string) (ports.PersistenceAdapter, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	name := unsafeChars.ReplaceAllString(userID, "_") + ".json"
	return New(filepath.Join(f.dir, name), f.logger), nil
}

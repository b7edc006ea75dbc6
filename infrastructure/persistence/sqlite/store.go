// Package sqlite keeps every user's ideas and vibes in one SQLite database
// file, one row per entity. Each batch is one SQL transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ideapardaz/application/ports"
	"ideapardaz/domain/core/entities"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store owns the database handle and hands out per-user adapters
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and migrates the schema
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection: batches read the revision and write in the same
	// transaction, and an in-memory database lives on a single connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("SQLite store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			user_id TEXT PRIMARY KEY,
			revision INTEGER NOT NULL,
			last_token TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS vibes (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (user_id, id)
		);`,
		`CREATE TABLE IF NOT EXISTS ideas (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			vibe_id TEXT NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			linked_ids_json TEXT NOT NULL,
			is_archived INTEGER NOT NULL,
			is_pinned INTEGER NOT NULL,
			PRIMARY KEY (user_id, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ideas_user_ts ON ideas(user_id, timestamp_ms DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// ForUser implements ports.AdapterFactory
func (s *Store) ForUser(_ context.Context, userID string) (ports.PersistenceAdapter, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return &Adapter{db: s.db, userID: userID, logger: s.logger.With(zap.String("userID", userID))}, nil
}

// Adapter is the PersistenceAdapter for one user's rows
type Adapter struct {
	db     *sql.DB
	userID string
	logger *zap.Logger
}

var _ ports.PersistenceAdapter = (*Adapter)(nil)

// Load reads every row of the user together with the revision
func (a *Adapter) Load(ctx context.Context) (ports.Snapshot, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return ports.Snapshot{}, err
	}
	defer tx.Rollback()

	revision, _, err := readMeta(ctx, tx, a.userID)
	if err != nil {
		return ports.Snapshot{}, err
	}

	state := entities.State{Vibes: []entities.Vibe{}, Ideas: []entities.Idea{}}

	vibeRows, err := tx.QueryContext(ctx,
		`SELECT id, name FROM vibes WHERE user_id = ? ORDER BY position, id`, a.userID)
	if err != nil {
		return ports.Snapshot{}, err
	}
	defer vibeRows.Close()
	for vibeRows.Next() {
		var v entities.Vibe
		if err := vibeRows.Scan(&v.ID, &v.Name); err != nil {
			return ports.Snapshot{}, err
		}
		state.Vibes = append(state.Vibes, v)
	}
	if err := vibeRows.Err(); err != nil {
		return ports.Snapshot{}, err
	}

	ideaRows, err := tx.QueryContext(ctx,
		`SELECT id, title, content, vibe_id, timestamp_ms, linked_ids_json, is_archived, is_pinned
		 FROM ideas WHERE user_id = ? ORDER BY timestamp_ms DESC, id`, a.userID)
	if err != nil {
		return ports.Snapshot{}, err
	}
	defer ideaRows.Close()
	for ideaRows.Next() {
		var (
			idea      entities.Idea
			linksJSON string
			archived  int
			pinned    int
		)
		if err := ideaRows.Scan(&idea.ID, &idea.Title, &idea.Content, &idea.VibeID,
			&idea.Timestamp, &linksJSON, &archived, &pinned); err != nil {
			return ports.Snapshot{}, err
		}
		if err := json.Unmarshal([]byte(linksJSON), &idea.LinkedIdeaIDs); err != nil {
			return ports.Snapshot{}, fmt.Errorf("idea %s: corrupt links: %w", idea.ID, err)
		}
		if idea.LinkedIdeaIDs == nil {
			idea.LinkedIdeaIDs = []string{}
		}
		idea.IsArchived = archived != 0
		idea.IsPinned = pinned != 0
		state.Ideas = append(state.Ideas, idea)
	}
	if err := ideaRows.Err(); err != nil {
		return ports.Snapshot{}, err
	}

	return ports.Snapshot{State: state, Revision: revision}, nil
}

// ApplyBatch executes the batch in one transaction and bumps the revision
func (a *Adapter) ApplyBatch(ctx context.Context, batch ports.Batch) (ports.Revision, error) {
	if err := batch.Validate(); err != nil {
		return 0, fmt.Errorf("invalid batch: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	revision, lastToken, err := readMeta(ctx, tx, a.userID)
	if err != nil {
		return 0, err
	}
	if batch.Token != "" && batch.Token == lastToken {
		return revision, nil
	}
	if err := batch.CheckBase(revision); err != nil {
		return 0, err
	}

	for _, op := range batch.Operations {
		if err := a.exec(ctx, tx, op); err != nil {
			return 0, fmt.Errorf("%s %s %s: %w", op.Type, op.Entity, op.ID, err)
		}
	}

	next := revision + 1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta(user_id, revision, last_token) VALUES(?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET revision = excluded.revision, last_token = excluded.last_token`,
		a.userID, int64(next), batch.Token); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	a.logger.Debug("Committed batch",
		zap.Int("operations", len(batch.Operations)),
		zap.Uint64("revision", uint64(next)),
	)
	return next, nil
}

func (a *Adapter) exec(ctx context.Context, tx *sql.Tx, op ports.Operation) error {
	switch op.Entity {
	case ports.EntityVibe:
		if op.Type == ports.OperationDelete {
			_, err := tx.ExecContext(ctx, `DELETE FROM vibes WHERE user_id = ? AND id = ?`, a.userID, op.ID)
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO vibes(user_id, id, name, position)
			 VALUES(?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM vibes WHERE user_id = ?))
			 ON CONFLICT(user_id, id) DO UPDATE SET name = excluded.name`,
			a.userID, op.Vibe.ID, op.Vibe.Name, a.userID)
		return err

	case ports.EntityIdea:
		if op.Type == ports.OperationDelete {
			_, err := tx.ExecContext(ctx, `DELETE FROM ideas WHERE user_id = ? AND id = ?`, a.userID, op.ID)
			return err
		}
		links := op.Idea.LinkedIdeaIDs
		if links == nil {
			links = []string{}
		}
		linksJSON, err := json.Marshal(links)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ideas(user_id, id, title, content, vibe_id, timestamp_ms, linked_ids_json, is_archived, is_pinned)
			 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(user_id, id) DO UPDATE SET
			   title = excluded.title,
			   content = excluded.content,
			   vibe_id = excluded.vibe_id,
			   timestamp_ms = excluded.timestamp_ms,
			   linked_ids_json = excluded.linked_ids_json,
			   is_archived = excluded.is_archived,
			   is_pinned = excluded.is_pinned`,
			a.userID, op.Idea.ID, op.Idea.Title, op.Idea.Content, op.Idea.VibeID, op.Idea.Timestamp,
			string(linksJSON), boolInt(op.Idea.IsArchived), boolInt(op.Idea.IsPinned))
		return err
	}
	return fmt.Errorf("unknown entity %q", op.Entity)
}

// Close is a no-op; the database belongs to the Store
func (a *Adapter) Close() error {
	return nil
}

func readMeta(ctx context.Context, tx *sql.Tx, userID string) (ports.Revision, string, error) {
	var (
		revision int64
		token    string
	)
	err := tx.QueryRowContext(ctx, `SELECT revision, last_token FROM meta WHERE user_id = ?`, userID).
		Scan(&revision, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", err
	}
	return ports.Revision(revision), token, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package snapshot maps the store's state to and from the portable JSON
// backup document: an object with exactly the fields "vibes" and "ideas".
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"ideapardaz/domain/core/entities"
	pkgerrors "ideapardaz/pkg/errors"
	"ideapardaz/pkg/utils"
)

// MaxDocumentSize bounds what Read accepts
const MaxDocumentSize = 32 << 20

type document struct {
	Vibes []entities.Vibe `json:"vibes"`
	Ideas []entities.Idea `json:"ideas"`
}

// ideaRecord tolerates missing optional fields in older backups
type ideaRecord struct {
	ID            *string  `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	VibeID        string   `json:"vibeId"`
	Timestamp     int64    `json:"timestamp"`
	LinkedIdeaIDs []string `json:"linkedIdeaIds"`
	IsArchived    bool     `json:"isArchived"`
	IsPinned      bool     `json:"isPinned"`
}

type vibeRecord struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// Encode renders state as an indented JSON document
func Encode(state entities.State) ([]byte, error) {
	doc := document{
		Vibes: make([]entities.Vibe, len(state.Vibes)),
		Ideas: make([]entities.Idea, len(state.Ideas)),
	}
	copy(doc.Vibes, state.Vibes)
	for i, idea := range state.Ideas {
		doc.Ideas[i] = idea.Clone()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a JSON document. Both fields must be present and be arrays;
// anything else is a format error.
func Decode(data []byte) (entities.State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return entities.State{}, pkgerrors.NewFormatError("snapshot is not a JSON object").WithCause(err)
	}

	rawVibes, err := arrayField(fields, "vibes")
	if err != nil {
		return entities.State{}, err
	}
	rawIdeas, err := arrayField(fields, "ideas")
	if err != nil {
		return entities.State{}, err
	}

	var vibeRecords []vibeRecord
	if err := json.Unmarshal(rawVibes, &vibeRecords); err != nil {
		return entities.State{}, pkgerrors.NewFormatError("vibes must be an array of {id, name} objects").WithCause(err)
	}
	var ideaRecords []ideaRecord
	if err := json.Unmarshal(rawIdeas, &ideaRecords); err != nil {
		return entities.State{}, pkgerrors.NewFormatError("ideas must be an array of idea objects").WithCause(err)
	}

	state := entities.State{
		Vibes: make([]entities.Vibe, 0, len(vibeRecords)),
		Ideas: make([]entities.Idea, 0, len(ideaRecords)),
	}
	for i, r := range vibeRecords {
		if r.ID == nil || r.Name == nil {
			return entities.State{}, pkgerrors.NewFormatError(fmt.Sprintf("vibes[%d] must have id and name", i))
		}
		state.Vibes = append(state.Vibes, entities.Vibe{ID: *r.ID, Name: *r.Name})
	}
	for i, r := range ideaRecords {
		if r.ID == nil {
			return entities.State{}, pkgerrors.NewFormatError(fmt.Sprintf("ideas[%d] must have an id", i))
		}
		links := r.LinkedIdeaIDs
		if links == nil {
			links = []string{}
		}
		state.Ideas = append(state.Ideas, entities.Idea{
			ID:            *r.ID,
			Title:         r.Title,
			Content:       r.Content,
			VibeID:        r.VibeID,
			Timestamp:     r.Timestamp,
			LinkedIdeaIDs: links,
			IsArchived:    r.IsArchived,
			IsPinned:      r.IsPinned,
		})
	}
	return state, nil
}

func arrayField(fields map[string]json.RawMessage, name string) (json.RawMessage, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, pkgerrors.NewFormatError(fmt.Sprintf("snapshot is missing %q", name))
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, pkgerrors.NewFormatError(fmt.Sprintf("%q must be an array", name))
	}
	return trimmed, nil
}

// Write encodes state to w
func Write(w io.Writer, state entities.State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Read decodes a document from r
func Read(r io.Reader) (entities.State, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return entities.State{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return entities.State{}, pkgerrors.NewFormatError("snapshot is too large")
	}
	return Decode(data)
}

// FileName returns the backup file name for an export taken at t
func FileName(t time.Time) string {
	return fmt.Sprintf("ideapardaz_backup_%s.json", utils.BackupTimestamp(t))
}

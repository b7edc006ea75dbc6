package events

import (
	"time"
)

// Event types
const (
	TypeIdeaCreated      = "idea.created"
	TypeIdeaArchived     = "idea.archived"
	TypeIdeaUnarchived   = "idea.unarchived"
	TypeIdeaPinToggled   = "idea.pin_toggled"
	TypeIdeaDeleted      = "idea.deleted"
	TypeIdeasLinked      = "ideas.linked"
	TypeIdeasUnlinked    = "ideas.unlinked"
	TypeVibeCreated      = "vibe.created"
	TypeVibeDeleted      = "vibe.deleted"
	TypeSnapshotImported = "snapshot.imported"
)

// DomainEvent is something that has already been committed to durable storage
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetUserID() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	UserID      string    `json:"user_id"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetUserID() string       { return e.UserID }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType, userID string, at time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		UserID:      userID,
		Timestamp:   at,
		Version:     1,
	}
}

// Idea events

// IdeaCreated is raised when a new idea is captured
type IdeaCreated struct {
	BaseEvent
	IdeaID        string   `json:"idea_id"`
	VibeID        string   `json:"vibe_id"`
	LinkedIdeaIDs []string `json:"linked_idea_ids"`
}

// NewIdeaCreated creates an IdeaCreated event
func NewIdeaCreated(userID, ideaID, vibeID string, links []string, at time.Time) IdeaCreated {
	if links == nil {
		links = []string{}
	}
	return IdeaCreated{
		BaseEvent:     newBase(ideaID, TypeIdeaCreated, userID, at),
		IdeaID:        ideaID,
		VibeID:        vibeID,
		LinkedIdeaIDs: links,
	}
}

// IdeaFlagsChanged is raised on archive, unarchive and pin toggles.
// EventType tells which of the three happened.
type IdeaFlagsChanged struct {
	BaseEvent
	IdeaID     string `json:"idea_id"`
	IsArchived bool   `json:"is_archived"`
	IsPinned   bool   `json:"is_pinned"`
}

// NewIdeaFlagsChanged creates an IdeaFlagsChanged event of the given type
func NewIdeaFlagsChanged(eventType, userID, ideaID string, archived, pinned bool, at time.Time) IdeaFlagsChanged {
	return IdeaFlagsChanged{
		BaseEvent:  newBase(ideaID, eventType, userID, at),
		IdeaID:     ideaID,
		IsArchived: archived,
		IsPinned:   pinned,
	}
}

// IdeaDeleted is raised when an idea is removed along with its back-links
type IdeaDeleted struct {
	BaseEvent
	IdeaID          string   `json:"idea_id"`
	UnlinkedIdeaIDs []string `json:"unlinked_idea_ids"`
}

// NewIdeaDeleted creates an IdeaDeleted event
func NewIdeaDeleted(userID, ideaID string, unlinked []string, at time.Time) IdeaDeleted {
	if unlinked == nil {
		unlinked = []string{}
	}
	return IdeaDeleted{
		BaseEvent:       newBase(ideaID, TypeIdeaDeleted, userID, at),
		IdeaID:          ideaID,
		UnlinkedIdeaIDs: unlinked,
	}
}

// IdeasLinkChanged is raised when a symmetric link is added or removed
type IdeasLinkChanged struct {
	BaseEvent
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// NewIdeasLinked creates a link event
func NewIdeasLinked(userID, sourceID, targetID string, at time.Time) IdeasLinkChanged {
	return IdeasLinkChanged{
		BaseEvent: newBase(sourceID, TypeIdeasLinked, userID, at),
		SourceID:  sourceID,
		TargetID:  targetID,
	}
}

// NewIdeasUnlinked creates an unlink event
func NewIdeasUnlinked(userID, sourceID, targetID string, at time.Time) IdeasLinkChanged {
	return IdeasLinkChanged{
		BaseEvent: newBase(sourceID, TypeIdeasUnlinked, userID, at),
		SourceID:  sourceID,
		TargetID:  targetID,
	}
}

// Vibe events

// VibeChanged is raised when a vibe is created or deleted
type VibeChanged struct {
	BaseEvent
	VibeID string `json:"vibe_id"`
	Name   string `json:"name"`
}

// NewVibeCreated creates a vibe creation event
func NewVibeCreated(userID, vibeID, name string, at time.Time) VibeChanged {
	return VibeChanged{
		BaseEvent: newBase(vibeID, TypeVibeCreated, userID, at),
		VibeID:    vibeID,
		Name:      name,
	}
}

// NewVibeDeleted creates a vibe deletion event
func NewVibeDeleted(userID, vibeID, name string, at time.Time) VibeChanged {
	return VibeChanged{
		BaseEvent: newBase(vibeID, TypeVibeDeleted, userID, at),
		VibeID:    vibeID,
		Name:      name,
	}
}

// SnapshotImported is raised after an import replaced the whole store
type SnapshotImported struct {
	BaseEvent
	VibeCount int `json:"vibe_count"`
	IdeaCount int `json:"idea_count"`
}

// NewSnapshotImported creates a SnapshotImported event
func NewSnapshotImported(userID string, vibes, ideas int, at time.Time) SnapshotImported {
	return SnapshotImported{
		BaseEvent: newBase(userID, TypeSnapshotImported, userID, at),
		VibeCount: vibes,
		IdeaCount: ideas,
	}
}

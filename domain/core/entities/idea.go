package entities

import (
	"slices"
)

// Idea is a short captured thought tagged with a vibe.
// LinkedIdeaIDs is a set: no duplicates, never the idea's own id.
type Idea struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	VibeID        string   `json:"vibeId"`
	Timestamp     int64    `json:"timestamp"`
	LinkedIdeaIDs []string `json:"linkedIdeaIds"`
	IsArchived    bool     `json:"isArchived"`
	IsPinned      bool     `json:"isPinned"`
}

// Clone returns a deep copy of the idea
func (i Idea) Clone() Idea {
	c := i
	c.LinkedIdeaIDs = make([]string, len(i.LinkedIdeaIDs))
	copy(c.LinkedIdeaIDs, i.LinkedIdeaIDs)
	return c
}

// Equal reports whether two ideas carry the same data.
// Link order is not significant.
func (i Idea) Equal(other Idea) bool {
	if i.ID != other.ID || i.Title != other.Title || i.Content != other.Content ||
		i.VibeID != other.VibeID || i.Timestamp != other.Timestamp ||
		i.IsArchived != other.IsArchived || i.IsPinned != other.IsPinned {
		return false
	}
	if len(i.LinkedIdeaIDs) != len(other.LinkedIdeaIDs) {
		return false
	}
	for _, id := range i.LinkedIdeaIDs {
		if !other.IsLinkedTo(id) {
			return false
		}
	}
	return true
}

// IsLinkedTo reports whether id is in the idea's link set
func (i Idea) IsLinkedTo(id string) bool {
	return slices.Contains(i.LinkedIdeaIDs, id)
}

// Link adds id to the link set. Self links and duplicates are ignored.
// Returns true if the set changed.
func (i *Idea) Link(id string) bool {
	if id == "" || id == i.ID || i.IsLinkedTo(id) {
		return false
	}
	i.LinkedIdeaIDs = append(i.LinkedIdeaIDs, id)
	return true
}

// Unlink removes id from the link set, returning true if it was present
func (i *Idea) Unlink(id string) bool {
	idx := slices.Index(i.LinkedIdeaIDs, id)
	if idx < 0 {
		return false
	}
	i.LinkedIdeaIDs = slices.Delete(slices.Clone(i.LinkedIdeaIDs), idx, idx+1)
	return true
}

// Archive hides the idea from the active list and always clears the pin
func (i *Idea) Archive() {
	i.IsArchived = true
	i.IsPinned = false
}

// Unarchive returns the idea to the active list. The pin is not restored.
func (i *Idea) Unarchive() {
	i.IsArchived = false
}

// TogglePin flips the pin flag. Archived ideas cannot be pinned;
// the call is ignored for them and false is returned.
func (i *Idea) TogglePin() bool {
	if i.IsArchived {
		return false
	}
	i.IsPinned = !i.IsPinned
	return true
}

// normalize restores the per-idea invariants on data from outside the store
func (i *Idea) normalize() {
	links := make([]string, 0, len(i.LinkedIdeaIDs))
	for _, id := range i.LinkedIdeaIDs {
		if id == "" || id == i.ID || slices.Contains(links, id) {
			continue
		}
		links = append(links, id)
	}
	i.LinkedIdeaIDs = links
	if i.IsArchived {
		i.IsPinned = false
	}
}

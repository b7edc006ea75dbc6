package queries

import (
	"sort"

	"ideapardaz/domain/core/entities"
)

// View selects which ideas a listing returns
type View string

const (
	ViewActive   View = "active"
	ViewArchived View = "archived"
	ViewAll      View = "all"
)

// ParseView maps a query parameter to a view, defaulting to active
func ParseView(s string) (View, bool) {
	switch View(s) {
	case "", ViewActive:
		return ViewActive, true
	case ViewArchived:
		return ViewArchived, true
	case ViewAll:
		return ViewAll, true
	}
	return "", false
}

// ActiveIdeas returns the non-archived ideas, pinned first, then newest first
func ActiveIdeas(ideas []entities.Idea) []entities.Idea {
	out := make([]entities.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if !idea.IsArchived {
			out = append(out, idea.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// ArchivedIdeas returns the archived ideas, newest first
func ArchivedIdeas(ideas []entities.Idea) []entities.Idea {
	out := make([]entities.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.IsArchived {
			out = append(out, idea.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// AllIdeas returns active ideas followed by archived ones
func AllIdeas(ideas []entities.Idea) []entities.Idea {
	return append(ActiveIdeas(ideas), ArchivedIdeas(ideas)...)
}

// Select applies a view
func Select(view View, ideas []entities.Idea) []entities.Idea {
	switch view {
	case ViewArchived:
		return ArchivedIdeas(ideas)
	case ViewAll:
		return AllIdeas(ideas)
	default:
		return ActiveIdeas(ideas)
	}
}

// IndexIdeas builds an id keyed lookup of copies
func IndexIdeas(ideas []entities.Idea) map[string]entities.Idea {
	m := make(map[string]entities.Idea, len(ideas))
	for _, idea := range ideas {
		m[idea.ID] = idea.Clone()
	}
	return m
}

// IndexVibes builds an id keyed lookup
func IndexVibes(vibes []entities.Vibe) map[string]entities.Vibe {
	m := make(map[string]entities.Vibe, len(vibes))
	for _, v := range vibes {
		m[v.ID] = v
	}
	return m
}

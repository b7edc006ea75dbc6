package entities

// State is the canonical collection owned by one idea store.
// Ideas are kept newest first; vibes keep insertion order.
type State struct {
	Vibes []Vibe `json:"vibes"`
	Ideas []Idea `json:"ideas"`
}

// NewState returns a state holding only the built-in vibes
func NewState() State {
	vibes := make([]Vibe, len(BuiltinVibes))
	copy(vibes, BuiltinVibes)
	return State{Vibes: vibes, Ideas: []Idea{}}
}

// Clone returns a deep copy
func (s State) Clone() State {
	c := State{
		Vibes: make([]Vibe, len(s.Vibes)),
		Ideas: make([]Idea, len(s.Ideas)),
	}
	copy(c.Vibes, s.Vibes)
	for i, idea := range s.Ideas {
		c.Ideas[i] = idea.Clone()
	}
	return c
}

// FindIdea returns the index of the idea with id, or -1
func (s State) FindIdea(id string) int {
	for i := range s.Ideas {
		if s.Ideas[i].ID == id {
			return i
		}
	}
	return -1
}

// FindVibe returns the index of the vibe with id, or -1
func (s State) FindVibe(id string) int {
	for i := range s.Vibes {
		if s.Vibes[i].ID == id {
			return i
		}
	}
	return -1
}

// IsVibeReferenced reports whether any idea is tagged with the vibe
func (s State) IsVibeReferenced(vibeID string) bool {
	for _, idea := range s.Ideas {
		if idea.VibeID == vibeID {
			return true
		}
	}
	return false
}

// MaxTimestamp returns the newest idea timestamp, or zero for an empty state
func (s State) MaxTimestamp() int64 {
	var max int64
	for _, idea := range s.Ideas {
		if idea.Timestamp > max {
			max = idea.Timestamp
		}
	}
	return max
}

// Equal compares two states entity by entity, ignoring link order
func (s State) Equal(other State) bool {
	if len(s.Vibes) != len(other.Vibes) || len(s.Ideas) != len(other.Ideas) {
		return false
	}
	for i := range s.Vibes {
		if s.Vibes[i] != other.Vibes[i] {
			return false
		}
	}
	for i := range s.Ideas {
		if !s.Ideas[i].Equal(other.Ideas[i]) {
			return false
		}
	}
	return true
}

// Normalize repairs link and pin invariants on state coming from outside the
// store: self, duplicate and dangling links are dropped, every remaining link
// is made symmetric and archived ideas lose their pin. Missing built-in vibes
// are restored.
func (s State) Normalize() State {
	out := s.Clone()
	if out.Ideas == nil {
		out.Ideas = []Idea{}
	}
	if out.Vibes == nil {
		out.Vibes = []Vibe{}
	}

	known := make(map[string]int, len(out.Ideas))
	for i := range out.Ideas {
		known[out.Ideas[i].ID] = i
	}

	for i := range out.Ideas {
		out.Ideas[i].normalize()
		kept := out.Ideas[i].LinkedIdeaIDs[:0]
		for _, id := range out.Ideas[i].LinkedIdeaIDs {
			if _, ok := known[id]; ok {
				kept = append(kept, id)
			}
		}
		out.Ideas[i].LinkedIdeaIDs = kept
	}

	for i := range out.Ideas {
		for _, id := range out.Ideas[i].LinkedIdeaIDs {
			out.Ideas[known[id]].Link(out.Ideas[i].ID)
		}
	}

	return out.WithBuiltinVibes()
}

// WithBuiltinVibes returns s with any missing built-in vibe put in front of
// the existing vibes. Built-ins need not be stored durably.
func (s State) WithBuiltinVibes() State {
	missing := make([]Vibe, 0, len(BuiltinVibes))
	for _, builtin := range BuiltinVibes {
		if s.FindVibe(builtin.ID) < 0 {
			missing = append(missing, builtin)
		}
	}
	if len(missing) == 0 {
		return s
	}
	vibes := make([]Vibe, 0, len(missing)+len(s.Vibes))
	vibes = append(vibes, missing...)
	s.Vibes = append(vibes, s.Vibes...)
	return s
}

// LinksAreSymmetric reports whether every link has its reciprocal and no idea
// links to itself or to a missing idea.
func (s State) LinksAreSymmetric() bool {
	byID := make(map[string]Idea, len(s.Ideas))
	for _, idea := range s.Ideas {
		byID[idea.ID] = idea
	}
	for _, idea := range s.Ideas {
		for _, id := range idea.LinkedIdeaIDs {
			other, ok := byID[id]
			if !ok || id == idea.ID || !other.IsLinkedTo(idea.ID) {
				return false
			}
		}
	}
	return true
}

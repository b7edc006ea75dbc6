package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveClearsPin(t *testing.T) {
	idea := Idea{ID: "a", IsPinned: true}
	idea.Archive()
	assert.True(t, idea.IsArchived)
	assert.False(t, idea.IsPinned)

	idea.Unarchive()
	assert.False(t, idea.IsArchived)
	assert.False(t, idea.IsPinned, "unarchive must not restore the pin")
}

func TestTogglePinIgnoredWhenArchived(t *testing.T) {
	idea := Idea{ID: "a", IsArchived: true}
	assert.False(t, idea.TogglePin())
	assert.False(t, idea.IsPinned)

	active := Idea{ID: "b"}
	assert.True(t, active.TogglePin())
	assert.True(t, active.IsPinned)
	assert.True(t, active.TogglePin())
	assert.False(t, active.IsPinned)
}

func TestLinkRejectsSelfAndDuplicates(t *testing.T) {
	idea := Idea{ID: "a"}
	assert.False(t, idea.Link("a"))
	assert.True(t, idea.Link("b"))
	assert.False(t, idea.Link("b"))
	assert.Equal(t, []string{"b"}, idea.LinkedIdeaIDs)

	assert.True(t, idea.Unlink("b"))
	assert.False(t, idea.Unlink("b"))
	assert.Empty(t, idea.LinkedIdeaIDs)
}

func TestCloneIsDeep(t *testing.T) {
	s := State{
		Vibes: []Vibe{{ID: "1", Name: "x"}},
		Ideas: []Idea{{ID: "a", LinkedIdeaIDs: []string{"b"}}},
	}
	c := s.Clone()
	c.Ideas[0].LinkedIdeaIDs[0] = "z"
	c.Vibes[0].Name = "y"

	assert.Equal(t, "b", s.Ideas[0].LinkedIdeaIDs[0])
	assert.Equal(t, "x", s.Vibes[0].Name)
}

func TestIdeaEqualIgnoresLinkOrder(t *testing.T) {
	a := Idea{ID: "a", LinkedIdeaIDs: []string{"b", "c"}}
	b := Idea{ID: "a", LinkedIdeaIDs: []string{"c", "b"}}
	assert.True(t, a.Equal(b))

	b.IsPinned = true
	assert.False(t, a.Equal(b))
}

func TestNormalize(t *testing.T) {
	s := State{
		Vibes: []Vibe{{ID: "2", Name: "🤔 Raw Thought"}, {ID: "custom", Name: "Work"}},
		Ideas: []Idea{
			{ID: "a", LinkedIdeaIDs: []string{"a", "b", "b", "ghost"}},
			{ID: "b"},
			{ID: "c", IsArchived: true, IsPinned: true},
		},
	}

	out := s.Normalize()
	require.Len(t, out.Ideas, 3)

	assert.Equal(t, []string{"b"}, out.Ideas[0].LinkedIdeaIDs)
	assert.Equal(t, []string{"a"}, out.Ideas[1].LinkedIdeaIDs)
	assert.False(t, out.Ideas[2].IsPinned)
	assert.True(t, out.LinksAreSymmetric())

	// missing built-ins are put in front of existing vibes
	ids := make([]string, 0, len(out.Vibes))
	for _, v := range out.Vibes {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"1", "3", "2", "custom"}, ids)

	// input untouched
	assert.Len(t, s.Ideas[0].LinkedIdeaIDs, 4)
}

func TestNewVibe(t *testing.T) {
	v, err := NewVibe("x", "  Work  ")
	require.NoError(t, err)
	assert.Equal(t, "Work", v.Name)

	_, err = NewVibe("x", "   ")
	assert.Error(t, err)

	assert.True(t, IsBuiltinVibe("1"))
	assert.False(t, IsBuiltinVibe("x"))
}

func TestNewStateHasBuiltins(t *testing.T) {
	s := NewState()
	assert.Len(t, s.Vibes, len(BuiltinVibes))
	assert.NotNil(t, s.Ideas)

	s.Vibes[0].Name = "changed"
	assert.Equal(t, "🚀 Project", BuiltinVibes[0].Name)
}

package queries

import (
	"testing"

	"ideapardaz/domain/core/entities"

	"github.com/stretchr/testify/assert"
)

func ids(ideas []entities.Idea) []string {
	out := make([]string, 0, len(ideas))
	for _, i := range ideas {
		out = append(out, i.ID)
	}
	return out
}

func TestActiveIdeasPinnedFirstThenNewest(t *testing.T) {
	ideas := []entities.Idea{
		{ID: "t1", Timestamp: 1},
		{ID: "t2", Timestamp: 2, IsPinned: true},
		{ID: "t3", Timestamp: 3},
		{ID: "old-archived", Timestamp: 0, IsArchived: true},
	}

	assert.Equal(t, []string{"t2", "t3", "t1"}, ids(ActiveIdeas(ideas)))
}

func TestArchivedIdeasNewestFirst(t *testing.T) {
	ideas := []entities.Idea{
		{ID: "a", Timestamp: 1, IsArchived: true},
		{ID: "b", Timestamp: 5, IsArchived: true},
		{ID: "c", Timestamp: 3},
	}
	assert.Equal(t, []string{"b", "a"}, ids(ArchivedIdeas(ideas)))
	assert.Equal(t, []string{"c", "b", "a"}, ids(Select(ViewAll, ideas)))
}

func TestParseView(t *testing.T) {
	v, ok := ParseView("")
	assert.True(t, ok)
	assert.Equal(t, ViewActive, v)

	v, ok = ParseView("archived")
	assert.True(t, ok)
	assert.Equal(t, ViewArchived, v)

	_, ok = ParseView("trash")
	assert.False(t, ok)
}

func TestIndexesAreCopies(t *testing.T) {
	ideas := []entities.Idea{{ID: "a", LinkedIdeaIDs: []string{"b"}}}
	idx := IndexIdeas(ideas)
	idx["a"].LinkedIdeaIDs[0] = "z"
	assert.Equal(t, "b", ideas[0].LinkedIdeaIDs[0])

	vibes := IndexVibes(entities.BuiltinVibes)
	assert.Equal(t, "💡 Lightbulb", vibes["3"].Name)
}

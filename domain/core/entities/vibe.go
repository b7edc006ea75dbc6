package entities

import (
	"strings"

	pkgerrors "ideapardaz/pkg/errors"
)

// Vibe is a category tag attached to ideas
type Vibe struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BuiltinVibes always exist and cannot be deleted
var BuiltinVibes = []Vibe{
	{ID: "1", Name: "🚀 Project"},
	{ID: "2", Name: "🤔 Raw Thought"},
	{ID: "3", Name: "💡 Lightbulb"},
}

// IsBuiltinVibe reports whether id belongs to one of the built-in vibes
func IsBuiltinVibe(id string) bool {
	for _, v := range BuiltinVibes {
		if v.ID == id {
			return true
		}
	}
	return false
}

// NewVibe creates a vibe, trimming the display name
func NewVibe(id, name string) (Vibe, error) {
	name = strings.TrimSpace(name)
	if id == "" {
		return Vibe{}, pkgerrors.NewValidationError("vibe id cannot be empty")
	}
	if name == "" {
		return Vibe{}, pkgerrors.NewValidationError("vibe name cannot be empty")
	}
	return Vibe{ID: id, Name: name}, nil
}

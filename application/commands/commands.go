package commands

import (
	"strings"

	"ideapardaz/pkg/utils"
)

// AddIdeaCommand captures a new idea. LinkedIdeaIDs are optional; duplicates
// are collapsed by the store.
type AddIdeaCommand struct {
	Title         string   `json:"title" validate:"notblank,max=200"`
	Content       string   `json:"content" validate:"notblank,max=50000"`
	VibeID        string   `json:"vibeId" validate:"notblank"`
	LinkedIdeaIDs []string `json:"linkedIdeaIds" validate:"omitempty,dive,notblank"`
}

// Normalize trims the text fields
func (c *AddIdeaCommand) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	c.Content = strings.TrimSpace(c.Content)
	c.VibeID = strings.TrimSpace(c.VibeID)
}

// Validate validates the command's shape
func (c AddIdeaCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// AddVibeCommand creates a new vibe
type AddVibeCommand struct {
	Name string `json:"name" validate:"notblank,max=60"`
}

// Validate validates the command's shape
func (c AddVibeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

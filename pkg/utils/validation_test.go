package utils

import (
	"testing"

	pkgerrors "ideapardaz/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string   `validate:"notblank,max=10"`
	Links []string `validate:"unique"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(sample{Title: "ok"}))

	err := ValidateStruct(sample{Title: "   "})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "title is required")
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, map[string]interface{}{"title": "title is required"}, appErr.Details["fields"])

	err = ValidateStruct(sample{Title: "much too long title"})
	assert.Contains(t, err.Error(), "title must be at most 10 characters")

	err = ValidateStruct(sample{Title: "ok", Links: []string{"a", "a"}})
	assert.Contains(t, err.Error(), "links must not contain duplicates")
}

package valueobjects

import (
	"github.com/google/uuid"
)

// NewID returns a fresh random identifier for an idea or vibe
func NewID() string {
	return uuid.New().String()
}

// NewBatchToken returns an idempotency token for one durable batch
func NewBatchToken() string {
	return uuid.New().String()
}

package config

// DomainConfig holds the configurable business rules of the idea store
type DomainConfig struct {
	// RequireUniqueVibeNames turns the duplicate-name hint into a hard rule.
	// Off by default: two vibes may share a display name.
	RequireUniqueVibeNames bool

	// MaxLinksPerIdea caps the number of links a new idea may declare. Zero means unlimited.
	MaxLinksPerIdea int

	// AllowLinksToArchived permits linking a new idea to archived ideas.
	AllowLinksToArchived bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		RequireUniqueVibeNames: false,
		MaxLinksPerIdea:        100,
		AllowLinksToArchived:   true,
	}
}

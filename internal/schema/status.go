package schema

import (
	"sort"
	"strings"
)

const (
	StatusActive     = "active"
	StatusPrivate    = "private"
	StatusDeprecated = "deprecated"
	StatusInactive   = "inactive"

	// DefaultPatternType is assigned when no registered type claims a pattern.
	DefaultPatternType = "pattern"
)

// Status controls how a pattern is exposed to content editors and builders.
type Status struct {
	Name   string
	Label  string
	Weight int
	// Import allows the pattern to be loaded and rendered.
	Import bool
	// Visible lists the pattern for editors.
	Visible bool
	// Creatable allows new items to be created with the pattern.
	Creatable bool
}

// DefaultStatuses returns the built-in statuses.
func DefaultStatuses() []Status {
	return []Status{
		{Name: StatusActive, Label: "Active", Weight: 0, Import: true, Visible: true, Creatable: true},
		{Name: StatusPrivate, Label: "Private", Weight: 10, Import: true, Creatable: true},
		{Name: StatusDeprecated, Label: "Deprecated", Weight: 20, Import: true, Visible: true},
		{Name: StatusInactive, Label: "Inactive", Weight: 30},
	}
}

// PatternType groups patterns. Types are tried in weight order and the first
// one claiming a pattern wins.
type PatternType struct {
	Name   string
	Label  string
	Prefix string
	Weight int
	// Resolve requests $ref resolution before the schema is exposed.
	Resolve       bool
	ClaimByName   func(name string) bool
	ClaimBySchema func(name string, document map[string]any) bool
}

func (t PatternType) claims(name string, document map[string]any) bool {
	if t.ClaimByName != nil && t.ClaimByName(name) {
		return true
	}
	if t.ClaimBySchema != nil && document != nil && t.ClaimBySchema(name, document) {
		return true
	}
	return false
}

func sortTypes(types []PatternType) {
	sort.SliceStable(types, func(i, j int) bool {
		if types[i].Weight != types[j].Weight {
			return types[i].Weight < types[j].Weight
		}
		return types[i].Name < types[j].Name
	})
}

func normalizeStatus(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return StatusActive
	}
	return normalized
}

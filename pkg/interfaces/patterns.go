package interfaces

import "github.com/goliatone/go-patternbuilder/entity"

// PatternRegistry answers questions about registered pattern schemas.
type PatternRegistry interface {
	// BundleSchema returns the pattern name bound to a bundle.
	BundleSchema(bundle string) (string, bool)
	// WrappedSchemaField returns the field holding the pattern an item wraps.
	WrappedSchemaField(entityType string, item *entity.Item) (string, bool)
	// IsTuple reports whether the item renders as a tuple placeholder.
	IsTuple(entityType string, item *entity.Item) bool
}

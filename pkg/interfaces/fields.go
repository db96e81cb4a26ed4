package interfaces

import (
	"context"

	"github.com/goliatone/go-patternbuilder/entity"
)

// DeltaRender is the markup produced for a single field delta.
type DeltaRender struct {
	Delta  int
	Markup string
	Denied bool
}

// FieldRender is the formatter output for a field.
type FieldRender struct {
	Denied bool
	Deltas []DeltaRender
}

// Delta returns the render for the given delta.
func (r FieldRender) Delta(delta int) (DeltaRender, bool) {
	for _, d := range r.Deltas {
		if d.Delta == delta {
			return d, true
		}
	}
	return DeltaRender{}, false
}

// FieldViewer renders fields and whole items with display formatters.
type FieldViewer interface {
	// PrepareView lets formatters batch-load data before individual views.
	PrepareView(ctx context.Context, entityType string, item *entity.Item, field entity.FieldInstance, display entity.Display) error
	ViewField(ctx context.Context, entityType string, item *entity.Item, field entity.FieldInstance, display entity.Display) (FieldRender, error)
	ViewEntity(ctx context.Context, entityType string, item *entity.Item, viewMode string) (string, error)
}

// URLGenerator builds absolute links for link, file, and image fields.
type URLGenerator interface {
	URL(path string, options map[string]any) (string, error)
	FileURL(uri string) (string, error)
	ImageStyleURL(style, uri string) (string, error)
}

// Sanitizer makes text safe for markup output.
type Sanitizer interface {
	Sanitize(value string) string
}

package fieldview

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/logging"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// DefaultFormatter is used when a display type has no registered formatter.
const DefaultFormatter = "text_default"

// Viewer renders fields with a registry of formatters keyed by display type.
type Viewer struct {
	catalog  interfaces.FieldCatalog
	access   interfaces.AccessChecker
	store    interfaces.EntityStore
	urls     interfaces.URLGenerator
	markup   interfaces.Sanitizer
	plain    interfaces.Sanitizer
	markdown *Markdown
	logger   interfaces.Logger

	mu         sync.RWMutex
	formatters map[string]Formatter
	prepared   map[string]int
}

var _ interfaces.FieldViewer = (*Viewer)(nil)

// Option customises a Viewer.
type Option func(*Viewer)

// WithAccess checks field and target access before rendering.
func WithAccess(access interfaces.AccessChecker) Option {
	return func(v *Viewer) {
		v.access = access
	}
}

// WithStore loads reference targets for label formatters.
func WithStore(store interfaces.EntityStore) Option {
	return func(v *Viewer) {
		v.store = store
	}
}

// WithURLs sets the generator used by link, image and file formatters.
func WithURLs(urls interfaces.URLGenerator) Option {
	return func(v *Viewer) {
		v.urls = urls
	}
}

// WithSanitizer overrides the markup policy.
func WithSanitizer(sanitizer interfaces.Sanitizer) Option {
	return func(v *Viewer) {
		if sanitizer != nil {
			v.markup = sanitizer
		}
	}
}

// WithMarkdown overrides the markdown converter options.
func WithMarkdown(opts MarkdownOptions) Option {
	return func(v *Viewer) {
		v.markdown = NewMarkdown(opts)
	}
}

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(v *Viewer) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithFormatter registers a formatter for a display type.
func WithFormatter(displayType string, formatter Formatter) Option {
	return func(v *Viewer) {
		v.formatters[strings.TrimSpace(displayType)] = formatter
	}
}

// New creates a viewer over catalog.
func New(catalog interfaces.FieldCatalog, opts ...Option) *Viewer {
	v := &Viewer{
		catalog:    catalog,
		markup:     bluemonday.UGCPolicy(),
		plain:      bluemonday.StrictPolicy(),
		markdown:   NewMarkdown(MarkdownOptions{}),
		logger:     logging.NoOp(),
		formatters: map[string]Formatter{},
		prepared:   map[string]int{},
	}
	v.registerDefaults()
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Register adds or replaces a formatter.
func (v *Viewer) Register(displayType string, formatter Formatter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.formatters[strings.TrimSpace(displayType)] = formatter
}

func (v *Viewer) formatter(displayType string) Formatter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if formatter, ok := v.formatters[displayType]; ok {
		return formatter
	}
	return v.formatters[DefaultFormatter]
}

// PrepareView records the preparation of a field display.
func (v *Viewer) PrepareView(_ context.Context, entityType string, item *entity.Item, field entity.FieldInstance, display entity.Display) error {
	if item == nil {
		return fmt.Errorf("fieldview: prepare %s: item required", field.FieldName)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prepared[preparedKey(entityType, field.FieldName, display.Type)]++
	return nil
}

// Prepared returns how often a field display was prepared.
func (v *Viewer) Prepared(entityType, fieldName, displayType string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.prepared[preparedKey(entityType, fieldName, displayType)]
}

func preparedKey(entityType, fieldName, displayType string) string {
	return entityType + "/" + fieldName + "/" + displayType
}

// ViewField renders every delta of a field. Access denial marks the whole
// render as denied.
func (v *Viewer) ViewField(ctx context.Context, entityType string, item *entity.Item, field entity.FieldInstance, display entity.Display) (interfaces.FieldRender, error) {
	out := interfaces.FieldRender{}
	if item == nil || display.Hidden() {
		return out, nil
	}
	if v.access != nil && !v.access.CanViewField(ctx, entityType, item, field.FieldName) {
		out.Denied = true
		return out, nil
	}
	info, _ := v.catalogInfo(field.FieldName)
	formatter := v.formatter(display.Type)
	for delta, value := range item.Items(field.FieldName) {
		markup, err := formatter(ctx, FormatContext{
			EntityType: entityType,
			Item:       item,
			Instance:   field,
			Info:       info,
			Display:    display,
			Delta:      delta,
			Value:      value,
			Viewer:     v,
		})
		if err != nil {
			return out, fmt.Errorf("fieldview: %s delta %d: %w", field.FieldName, delta, err)
		}
		out.Deltas = append(out.Deltas, interfaces.DeltaRender{Delta: delta, Markup: markup})
	}
	return out, nil
}

// ViewEntity renders the visible fields of item for viewMode inside a
// wrapper element.
func (v *Viewer) ViewEntity(ctx context.Context, entityType string, item *entity.Item, viewMode string) (string, error) {
	if item == nil || v.catalog == nil {
		return "", nil
	}
	if v.access != nil && !v.access.CanView(ctx, entityType, item) {
		return "", nil
	}
	var parts []string
	for _, instance := range v.catalog.FieldInstances(entityType, item.Bundle) {
		display := instance.DisplayFor(viewMode)
		if display.Hidden() {
			continue
		}
		rendered, err := v.ViewField(ctx, entityType, item, instance, display)
		if err != nil {
			return "", err
		}
		if rendered.Denied {
			continue
		}
		for _, delta := range rendered.Deltas {
			if strings.TrimSpace(delta.Markup) != "" {
				parts = append(parts, delta.Markup)
			}
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	class := strings.ReplaceAll(fmt.Sprintf("entity entity-%s %s-%s", entityType, entityType, item.Bundle), "_", "-")
	return fmt.Sprintf(`<div class="%s">%s</div>`, class, strings.Join(parts, "")), nil
}

func (v *Viewer) catalogInfo(fieldName string) (entity.FieldInfo, bool) {
	if v.catalog == nil {
		return entity.FieldInfo{}, false
	}
	return v.catalog.FieldInfo(fieldName)
}

func (v *Viewer) loadTarget(ctx context.Context, entityType, id string) *entity.Item {
	if v.store == nil || entityType == "" {
		return nil
	}
	item, err := v.store.Load(ctx, entityType, id)
	if err != nil {
		v.logger.Debug("fieldview.target.load_failed", "entity_type", entityType, "id", id, "error", err)
		return nil
	}
	return item
}

package display

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-patternbuilder/entity"
)

const (
	// RenderedKey is the property map key that maps the rendered markup of a
	// delta instead of a raw column.
	RenderedKey = "_rendered"
	// ChainDelimiter separates the segments of a chained property map key.
	ChainDelimiter = ":"

	fieldTypeLink  = "link_field"
	fieldTypeImage = "image"
	fieldTypeFile  = "file"

	keyURL       = "url"
	keySafeValue = "safe_value"
)

// Value is the normalized output for one field delta. Property mapped
// fields produce a map[string]any, rendered fields a markup string and
// boolean fields a bool.
type Value struct {
	Delta int
	Value any
}

// Handler exposes a field display as normalized values.
type Handler interface {
	IsShown() bool
	IsHidden() bool
	IsReadonly() bool
	CanRender() bool
	View(ctx context.Context) []Value
	Settings() entity.PatternSettings
	Display() entity.Display
	ViewMode() string
	FieldType() string
	Instance() entity.FieldInstance
}

// Options tunes property map processing.
type Options struct {
	RenderedKey    string
	ChainDelimiter string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.RenderedKey) == "" {
		o.RenderedKey = RenderedKey
	}
	if o.ChainDelimiter == "" {
		o.ChainDelimiter = ChainDelimiter
	}
	return o
}

// Params identify the field display a handler is created for.
type Params struct {
	Item     *entity.Item
	Instance entity.FieldInstance
	View     entity.ViewContext
}

// FieldRenderer renders every delta of the handler's field. Subtypes swap
// it to change whole-field rendering.
type FieldRenderer func(ctx context.Context, h *BaseHandler) map[int]any

// BaseHandler is the default display handler.
type BaseHandler struct {
	deps     Deps
	item     *entity.Item
	instance entity.FieldInstance
	info     entity.FieldInfo
	display  entity.Display
	viewMode string
	inert    bool
	render   FieldRenderer
}

var _ Handler = (*BaseHandler)(nil)

// NewHandler builds the default handler. The handler is inert when the
// instance or its field storage is incomplete.
func NewHandler(ctx context.Context, deps Deps, prepared *PreparedSet, params Params) *BaseHandler {
	h := &BaseHandler{
		deps:     deps.withDefaults(),
		item:     params.Item,
		instance: params.Instance,
		render:   renderFieldDeltas,
	}

	if strings.TrimSpace(params.Instance.EntityType) == "" || strings.TrimSpace(params.Instance.FieldName) == "" {
		h.inert = true
		return h
	}
	info, ok := h.deps.Catalog.FieldInfo(params.Instance.FieldName)
	if !ok || strings.TrimSpace(info.Type) == "" {
		h.deps.Logger.Debug("display.handler.inert", "field", params.Instance.FieldName, "reason", "missing field type")
		h.inert = true
		return h
	}
	h.info = info
	h.resolveDisplay(params.View)
	h.prepare(ctx, prepared)
	return h
}

func (h *BaseHandler) resolveDisplay(view entity.ViewContext) {
	var display entity.Display
	if view.Settings != nil {
		display = *view.Settings
	} else {
		h.viewMode = view.Mode
		if h.viewMode == "" {
			h.viewMode = entity.DefaultDisplay
		}
		display = h.instance.DisplayFor(h.viewMode)
	}
	if display.Settings != nil {
		settings := make(map[string]any, len(display.Settings))
		for key, value := range display.Settings {
			settings[key] = value
		}
		display.Settings = settings
	}
	if !display.Hidden() {
		if strings.TrimSpace(display.Type) == "" {
			display.Type = h.info.DefaultFormatter
		}
		if strings.TrimSpace(display.Module) == "" {
			display.Module = h.info.Module
		}
	}
	h.display = display
}

func (h *BaseHandler) prepare(ctx context.Context, prepared *PreparedSet) {
	key := PreparedKey(h.instance.FieldName, h.display)
	if !prepared.Mark(h.item, key) {
		return
	}
	if len(h.item.Items(h.instance.FieldName)) == 0 || h.deps.Viewer == nil {
		return
	}
	if err := h.deps.Viewer.PrepareView(ctx, h.instance.EntityType, h.item, h.instance, h.display); err != nil {
		h.deps.Logger.Warn("display.prepare.failed", "field", h.instance.FieldName, "key", key, "error", err)
	}
}

// IsShown reports whether the display is visible and mapped to a property.
func (h *BaseHandler) IsShown() bool {
	if h.inert {
		return false
	}
	return !h.display.Hidden() && strings.TrimSpace(h.instance.Pattern.PropertyName) != ""
}

func (h *BaseHandler) IsHidden() bool {
	return !h.IsShown()
}

func (h *BaseHandler) IsReadonly() bool {
	return h.instance.Pattern.Readonly
}

// CanRender reports whether the field contributes values to a component.
func (h *BaseHandler) CanRender() bool {
	return !h.IsReadonly() && h.IsShown()
}

func (h *BaseHandler) Settings() entity.PatternSettings {
	return h.instance.Pattern
}

func (h *BaseHandler) Display() entity.Display {
	return h.display
}

// ViewMode returns the view mode name, empty for explicit settings.
func (h *BaseHandler) ViewMode() string {
	return h.viewMode
}

func (h *BaseHandler) FieldType() string {
	return h.info.Type
}

func (h *BaseHandler) Instance() entity.FieldInstance {
	return h.instance
}

// FieldInfo returns the storage description of the field.
func (h *BaseHandler) FieldInfo() entity.FieldInfo {
	return h.info
}

// Item returns the item being displayed.
func (h *BaseHandler) Item() *entity.Item {
	return h.item
}

// View returns the normalized values ordered by delta.
func (h *BaseHandler) View(ctx context.Context) []Value {
	if h.inert {
		return nil
	}
	var values map[int]any
	if len(h.instance.Pattern.PropertyMap) > 0 {
		values = h.viewPropertyMap(ctx)
	} else {
		values = h.render(ctx, h)
	}
	return orderedValues(values)
}

func (h *BaseHandler) viewPropertyMap(ctx context.Context) map[int]any {
	items := h.item.Items(h.instance.FieldName)
	if len(items) == 0 {
		return nil
	}
	opts := h.deps.Options

	var rendered map[int]any
	for _, mapping := range h.instance.Pattern.PropertyMap {
		if mapping.Key == opts.RenderedKey {
			rendered = h.render(ctx, h)
			break
		}
	}

	out := map[int]any{}
	for delta, item := range items {
		props := map[string]any{}
		for _, mapping := range h.instance.Pattern.PropertyMap {
			if value, ok := h.mappedValue(ctx, mapping.Key, item, delta, rendered); ok {
				props[mapping.Property] = value
			}
		}
		if len(props) > 0 {
			out[delta] = props
		}
	}
	return out
}

func (h *BaseHandler) mappedValue(ctx context.Context, key string, item entity.FieldItem, delta int, rendered map[int]any) (any, bool) {
	opts := h.deps.Options
	switch {
	case key == opts.RenderedKey:
		value, ok := rendered[delta]
		return value, ok && value != nil
	case key == keyURL:
		if url, ok := h.itemURL(item); ok {
			return url, true
		}
		raw, ok := item.String(keyURL)
		if !ok {
			return nil, false
		}
		if h.deps.URLs == nil {
			return raw, true
		}
		url, err := h.deps.URLs.URL(raw, nil)
		if err != nil {
			h.deps.Logger.Debug("display.url.failed", "field", h.instance.FieldName, "delta", delta, "error", err)
			return nil, false
		}
		return url, true
	}

	if value, ok := item[key]; ok && value != nil {
		return h.sanitize(key, value), true
	}
	if strings.Contains(key, opts.ChainDelimiter) {
		if value, ok := nestedValue(item, strings.Split(key, opts.ChainDelimiter)); ok && value != nil {
			return h.sanitize(key, value), true
		}
	}
	return nil, false
}

// itemURL builds the URL for link, image and file fields.
func (h *BaseHandler) itemURL(item entity.FieldItem) (string, bool) {
	if h.deps.URLs == nil {
		return "", false
	}
	var (
		url string
		err error
	)
	switch h.info.Type {
	case fieldTypeLink:
		raw, ok := item.String(keyURL)
		if !ok {
			return "", false
		}
		options := map[string]any{}
		for key, value := range item {
			if key == keyURL || key == "title" {
				continue
			}
			options[key] = value
		}
		url, err = h.deps.URLs.URL(raw, options)
	case fieldTypeImage:
		uri, ok := item.String("uri")
		if !ok {
			return "", false
		}
		if style := h.display.Setting("image_style"); style != "" {
			url, err = h.deps.URLs.ImageStyleURL(style, uri)
		} else {
			url, err = h.deps.URLs.FileURL(uri)
		}
	case fieldTypeFile:
		uri, ok := item.String("uri")
		if !ok {
			return "", false
		}
		url, err = h.deps.URLs.FileURL(uri)
	default:
		return "", false
	}
	if err != nil {
		h.deps.Logger.Debug("display.url.failed", "field", h.instance.FieldName, "type", h.info.Type, "error", err)
		return "", false
	}
	return url, url != ""
}

// sanitize escapes raw column values. Link columns are sanitized when the
// field is prepared, safe_value and rendered markup already are.
func (h *BaseHandler) sanitize(key string, value any) any {
	if h.info.Type == fieldTypeLink || key == keySafeValue || key == h.deps.Options.RenderedKey {
		return value
	}
	switch typed := value.(type) {
	case string:
		return h.deps.Sanitizer.Sanitize(typed)
	case map[string]any, []any, entity.FieldItem:
		return typed
	case fmt.Stringer:
		return h.deps.Sanitizer.Sanitize(typed.String())
	default:
		return typed
	}
}

// renderFieldDeltas renders every delta through the field viewer, dropping
// empty and access denied deltas.
func renderFieldDeltas(ctx context.Context, h *BaseHandler) map[int]any {
	if h.deps.Viewer == nil {
		return nil
	}
	render, err := h.deps.Viewer.ViewField(ctx, h.instance.EntityType, h.item, h.instance, h.display)
	if err != nil {
		h.deps.Logger.Debug("display.view.failed", "field", h.instance.FieldName, "error", err)
		return nil
	}
	out := map[int]any{}
	for _, delta := range render.Deltas {
		if render.Denied || delta.Denied {
			continue
		}
		if strings.TrimSpace(delta.Markup) == "" {
			continue
		}
		out[delta.Delta] = delta.Markup
	}
	return out
}

func nestedValue(item entity.FieldItem, path []string) (any, bool) {
	var current any = map[string]any(item)
	for _, segment := range path {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[segment]
			if !ok {
				return nil, false
			}
			current = next
		case entity.FieldItem:
			next, ok := typed[segment]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func orderedValues(values map[int]any) []Value {
	if len(values) == 0 {
		return nil
	}
	deltas := make([]int, 0, len(values))
	for delta := range values {
		deltas = append(deltas, delta)
	}
	sort.Ints(deltas)
	out := make([]Value, 0, len(deltas))
	for _, delta := range deltas {
		out = append(out, Value{Delta: delta, Value: values[delta]})
	}
	return out
}

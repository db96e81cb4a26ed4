package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/component"
	"github.com/goliatone/go-patternbuilder/internal/display"
	"github.com/goliatone/go-patternbuilder/internal/logging"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// Builder assembles the component tree of a root item. A builder is bound
// to one item and is not safe for concurrent use.
type Builder struct {
	deps       Dependencies
	opts       Options
	logger     interfaces.Logger
	entityType string
	item       *entity.Item

	component *component.Component
	builtKey  string
	builtView entity.ViewContext
	dirty     bool
}

// pass carries the state of one build over the root item.
type pass struct {
	rootItem *entity.Item
	root     entity.Identity
	prepared *display.PreparedSet
	visiting map[entity.Identity]struct{}
	entered  map[*entity.Item]struct{}
}

func newPass(root *entity.Item) *pass {
	return &pass{
		rootItem: root,
		root:     root.Identity(),
		prepared: display.NewPreparedSet(),
		visiting: map[entity.Identity]struct{}{},
		entered:  map[*entity.Item]struct{}{},
	}
}

// enter records item as being built. It reports false when the item, or a
// stored copy of the same revision, is already on the build stack.
func (p *pass) enter(item *entity.Item, id entity.Identity) bool {
	if _, busy := p.entered[item]; busy {
		return false
	}
	if id.ID != "" {
		if _, busy := p.visiting[id]; busy {
			return false
		}
		p.visiting[id] = struct{}{}
	}
	p.entered[item] = struct{}{}
	return true
}

func (p *pass) leave(item *entity.Item, id entity.Identity) {
	delete(p.entered, item)
	if id.ID != "" {
		delete(p.visiting, id)
	}
}

// New creates a builder and resolves the root schema.
func New(ctx context.Context, deps Dependencies, entityType string, item *entity.Item) *Builder {
	deps = deps.withDefaults()
	b := &Builder{
		deps:       deps,
		opts:       deps.Options,
		entityType: entityType,
		item:       item,
	}
	b.logger = logging.WithItemContext(deps.Logger, entityType, item.Identity().ID, item.Identity().RevisionID, "")
	b.initComponent(ctx)
	return b
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = logging.NoOp()
	}
	if d.Store == nil {
		d.Store = noStore{}
	}
	if d.Catalog == nil {
		d.Catalog = noCatalog{}
	}
	if d.Access == nil {
		d.Access = allowAll{}
	}
	if d.Patterns == nil {
		d.Patterns = noPatterns{}
	}
	if d.Displays == nil {
		d.Displays = display.NewRegistry(display.Deps{
			Catalog: d.Catalog,
			Viewer:  d.Viewer,
			Logger:  d.Logger,
		})
	}
	d.Options = d.Options.withDefaults()
	return d
}

func (b *Builder) initComponent(ctx context.Context) {
	b.builtKey = ""
	b.builtView = entity.ViewContext{}
	b.dirty = false
	b.component = b.loadSchemaByEntity(ctx, b.entityType, b.item)
	if b.component == nil {
		b.logger.Debug("builder.root.unresolved", "bundle", bundleOf(b.item))
	}
}

// CanBuild reports whether a schema was resolved for the root item.
func (b *Builder) CanBuild() bool {
	return b.component != nil
}

// Component returns the root component, nil when CanBuild is false.
func (b *Builder) Component() *component.Component {
	return b.component
}

// BuiltView returns the view context of the last completed build.
func (b *Builder) BuiltView() (entity.ViewContext, bool) {
	return b.builtView, b.builtKey != ""
}

// Render builds the tree for view when needed, stamps the root metadata and
// returns the rendered structure. It returns nil when CanBuild is false.
func (b *Builder) Render(ctx context.Context, view entity.ViewContext) map[string]any {
	if view.IsZero() {
		view = entity.ViewMode(b.opts.DefaultViewMode)
	}
	if !b.CanBuild() {
		return nil
	}

	key := view.Key()
	if b.builtKey != key {
		if b.dirty {
			b.initComponent(ctx)
			if !b.CanBuild() {
				return nil
			}
		}
		b.dirty = true
		p := newPass(b.item)
		if b.build(ctx, p, b.component, b.entityType, b.item, view, "") {
			b.builtKey = key
			b.builtView = view
		}
		b.logger.Debug("builder.render.built", "view", view.String(), "completed", b.builtKey == key)
	}

	b.stampMeta()
	rendered, _ := b.component.Render().(map[string]any)
	return rendered
}

// RenderMarkup renders the tree through a template renderer.
func (b *Builder) RenderMarkup(ctx context.Context, view entity.ViewContext, renderer TreeRenderer) (string, error) {
	tree := b.Render(ctx, view)
	if tree == nil {
		return "", nil
	}
	if renderer == nil {
		return "", fmt.Errorf("builder: template renderer required")
	}
	return renderer.RenderTree(ctx, tree)
}

// TreeRenderer turns a rendered component tree into markup.
type TreeRenderer interface {
	RenderTree(ctx context.Context, tree map[string]any) (string, error)
}

func (b *Builder) stampMeta() {
	if b.item == nil || strings.TrimSpace(b.item.ID) == "" {
		return
	}
	uniqueID := b.item.ID
	if b.entityType != b.opts.SchemaEntityType {
		uniqueID = htmlClass(b.entityType + "-" + b.item.ID)
	}
	SetComponentValue(b.component, b.opts.MetaProperty, map[string]any{"uniqueId": uniqueID}, nil)
}

// build assigns the values of item into target. Without a field name every
// configured field of the item's bundle is built; it reports whether the
// root item completed.
func (b *Builder) build(ctx context.Context, p *pass, target component.Property, entityType string, item *entity.Item, view entity.ViewContext, fieldName string) bool {
	if item == nil {
		return false
	}
	if _, ok := b.deps.Store.EntityInfo(entityType); !ok {
		b.logger.Debug("builder.entity.invalid_type", "entity_type", entityType)
		return false
	}
	if fieldName != "" {
		return b.buildField(ctx, p, target, entityType, item, view, fieldName)
	}

	id := item.Identity()
	if !p.enter(item, id) {
		b.logger.Debug("builder.entity.cycle", "entity_type", entityType, "entity_id", id.ID)
		return false
	}
	defer p.leave(item, id)

	completed := false
	for _, instance := range b.deps.Catalog.FieldInstances(entityType, item.Bundle) {
		if b.build(ctx, p, target, entityType, item, view, instance.FieldName) {
			completed = true
		}
	}
	if item == p.rootItem || id.Same(p.root) {
		completed = true
	}
	p.prepared.Clear(item)
	return completed
}

func (b *Builder) buildField(ctx context.Context, p *pass, target component.Property, entityType string, item *entity.Item, view entity.ViewContext, fieldName string) bool {
	instance, ok := b.deps.Catalog.FieldInstance(entityType, item.Bundle, fieldName)
	if !ok {
		return false
	}
	handler := b.deps.Displays.Handler(ctx, p.prepared, display.Params{Item: item, Instance: instance, View: view})
	if !handler.CanRender() || len(item.Items(fieldName)) == 0 {
		return false
	}
	settings := handler.Settings()

	info, _ := b.deps.Catalog.FieldInfo(fieldName)
	refType := strings.TrimSpace(info.TargetType)
	refInfo, isReference := entity.EntityInfo{}, false
	if refType != "" {
		refInfo, isReference = b.deps.Store.EntityInfo(refType)
	}
	if !isReference {
		for _, value := range handler.View(ctx) {
			SetComponentValue(target, settings.PropertyName, value.Value, settings.ParentPropertyNames)
		}
		return false
	}

	chainable := b.opts.isReferenceType(refType)
	fieldView := handler.Display().Setting("view_mode")
	if fieldView == "" {
		fieldView = b.opts.FieldViewMode
	}

	var rendered []display.Value
	renderedLoaded := false
	completed := false
	for delta, fieldItem := range item.Items(fieldName) {
		childType := refType
		child := b.loadReference(ctx, refInfo, childType, fieldItem)
		if child == nil || !b.deps.Access.CanView(ctx, childType, child) {
			continue
		}
		if !chainable {
			childType, child = b.unwrap(ctx, childType, child)
		}

		var (
			value   component.Property
			recurse = true
		)
		if c := b.loadSchemaByEntity(ctx, childType, child); c != nil {
			value = c
		} else if childType == b.opts.SchemaEntityType {
			if v := b.entityComponent(ctx, childType, child, fieldView); v != nil {
				value = v
			}
		} else if b.deps.Patterns.IsTuple(childType, child) {
			value = component.NewTuple()
			recurse = false
		} else if chainable {
			value = component.NewValue()
		}

		if value == nil {
			if !renderedLoaded {
				rendered = handler.View(ctx)
				renderedLoaded = true
			}
			for _, v := range rendered {
				if v.Delta == delta {
					SetComponentValue(target, settings.PropertyName, b.rawComponent(v.Value), settings.ParentPropertyNames)
				}
			}
			continue
		}

		if recurse && b.build(ctx, p, value, childType, child, entity.ViewMode(fieldView), "") {
			completed = true
		}
		SetComponentValue(target, settings.PropertyName, value, settings.ParentPropertyNames)
	}
	return completed
}

// loadReference prefers an attached item, then the revision key, then the id key.
func (b *Builder) loadReference(ctx context.Context, info entity.EntityInfo, entityType string, fieldItem entity.FieldItem) *entity.Item {
	switch attached := fieldItem["entity"].(type) {
	case *entity.Item:
		if attached != nil {
			return attached
		}
	case entity.Item:
		return &attached
	}

	revisionID := referenceKey(fieldItem, info.Keys.Revision, "revision_id")
	if revisionID != "" {
		item, err := b.deps.Store.LoadRevision(ctx, entityType, revisionID)
		if err != nil {
			b.logger.Debug("builder.reference.load_failed", "entity_type", entityType, "revision_id", revisionID, "error", err)
			return nil
		}
		return item
	}
	id := referenceKey(fieldItem, info.Keys.ID, "value")
	if id == "" {
		return nil
	}
	item, err := b.deps.Store.Load(ctx, entityType, id)
	if err != nil {
		b.logger.Debug("builder.reference.load_failed", "entity_type", entityType, "entity_id", id, "error", err)
		return nil
	}
	return item
}

func referenceKey(fieldItem entity.FieldItem, key, fallback string) string {
	if key != "" {
		if value, ok := fieldItem.String(key); ok && value != "" {
			return value
		}
	}
	value, _ := fieldItem.String(fallback)
	return value
}

// unwrap swaps a wrapper item for the pattern item held by its wrapped
// schema field.
func (b *Builder) unwrap(ctx context.Context, entityType string, item *entity.Item) (string, *entity.Item) {
	field, ok := b.deps.Patterns.WrappedSchemaField(entityType, item)
	if !ok {
		return entityType, item
	}
	items := item.Items(field)
	if len(items) == 0 {
		return entityType, item
	}
	wrappedType := b.opts.SchemaEntityType
	info, _ := b.deps.Store.EntityInfo(wrappedType)
	wrapped := b.loadReference(ctx, info, wrappedType, items[0])
	if wrapped == nil || !b.deps.Access.CanView(ctx, wrappedType, wrapped) {
		return entityType, item
	}
	return wrappedType, wrapped
}

// loadSchemaByEntity resolves the pattern of an item and returns a fresh
// component sourced from it.
func (b *Builder) loadSchemaByEntity(ctx context.Context, entityType string, item *entity.Item) *component.Component {
	if item == nil || strings.TrimSpace(item.Bundle) == "" {
		return nil
	}
	name := ""
	if entityType == b.opts.SchemaEntityType || b.opts.isReferenceType(entityType) {
		name = b.schemaFromFields(entityType, item)
	}
	if name == "" && entityType == b.opts.SchemaEntityType {
		name, _ = b.deps.Patterns.BundleSchema(item.Bundle)
	}
	if name == "" || b.deps.Schemas == nil {
		return nil
	}
	c, err := b.deps.Schemas.Load(ctx, name)
	if err != nil || c == nil {
		b.logger.Debug("builder.schema.load_failed", "pattern", name, "entity_type", entityType, "error", err)
		return nil
	}
	return c.Source(item, entityType)
}

// schemaFromFields finds the pattern name stored in a field mapped to one of
// the schema property names. Readonly fields use their default value.
func (b *Builder) schemaFromFields(entityType string, item *entity.Item) string {
	instances := b.deps.Catalog.FieldInstances(entityType, item.Bundle)
	for _, property := range b.opts.SchemaPropertyNames {
		for _, instance := range instances {
			if instance.Pattern.PropertyName != property {
				continue
			}
			if instance.Pattern.Readonly && len(instance.DefaultValue) > 0 {
				if name := truthyString(instance.DefaultValue[0].FirstValue()); name != "" {
					return name
				}
			}
			for _, fieldItem := range item.Items(instance.FieldName) {
				if name := truthyString(fieldItem.FirstValue()); name != "" {
					return name
				}
			}
		}
	}
	return ""
}

// entityComponent renders an item without a pattern into a pb_entity value.
func (b *Builder) entityComponent(ctx context.Context, entityType string, item *entity.Item, viewMode string) *component.ValueProperty {
	if b.deps.Viewer == nil || !b.deps.Access.CanView(ctx, entityType, item) {
		return nil
	}
	markup, err := b.deps.Viewer.ViewEntity(ctx, entityType, item, viewMode)
	if err != nil {
		b.logger.Debug("builder.entity.view_failed", "entity_type", entityType, "error", err)
		return nil
	}
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	name := b.opts.EntitySchemaName
	return component.NewValue().SetByAssoc(map[string]any{
		"name":    name,
		"content": markup,
		"classes_array": []any{
			htmlClass(name + "-" + entityType),
			htmlClass(name + "-" + entityType + "-" + viewMode),
		},
	})
}

func (b *Builder) rawComponent(markup any) *component.ValueProperty {
	return component.NewValue().SetByAssoc(map[string]any{
		"name":    b.opts.RawSchemaName,
		"content": markup,
	})
}

// SetComponentValue assigns value to property of target. With parent names
// the value is nested below them and assigned to the first parent.
func SetComponentValue(target component.Property, property string, value any, parents []string) {
	if target == nil {
		return
	}
	if len(parents) > 0 {
		path := append(append([]string(nil), parents[1:]...), property)
		nested := value
		for i := len(path) - 1; i >= 0; i-- {
			nested = map[string]any{path[i]: nested}
		}
		SetComponentValue(target, parents[0], nested, nil)
		return
	}
	target.Set(property, value)
}

func truthyString(value any, ok bool) string {
	if !ok || value == nil {
		return ""
	}
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" || str == "0" || str == "false" {
		return ""
	}
	return str
}

func htmlClass(value string) string {
	normalized := strings.NewReplacer("_", "-", " ", "-").Replace(strings.ToLower(value))
	if class, err := slug.Normalize(normalized); err == nil && class != "" {
		return class
	}
	return normalized
}

func bundleOf(item *entity.Item) string {
	if item == nil {
		return ""
	}
	return item.Bundle
}

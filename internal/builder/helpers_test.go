package builder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/component"
	"github.com/goliatone/go-patternbuilder/internal/content"
	"github.com/goliatone/go-patternbuilder/internal/schema"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

var errUnknownSchema = errors.New("unknown schema")

type stubSchemas struct {
	documents map[string]map[string]any
	loads     map[string]int
}

func newStubSchemas() *stubSchemas {
	return &stubSchemas{
		documents: map[string]map[string]any{
			"page": {
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
					"items": map[string]any{"type": "array"},
					"tags":  map[string]any{"type": "array"},
					"meta":  map[string]any{"type": "object"},
				},
			},
			"card": {
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
					"items": map[string]any{"type": "array"},
				},
			},
		},
		loads: map[string]int{},
	}
}

func (s *stubSchemas) Load(_ context.Context, name string) (*component.Component, error) {
	document, ok := s.documents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownSchema, name)
	}
	s.loads[name]++
	return component.New(name, document), nil
}

type stubViewer struct {
	prepared int
	empty    map[string]bool
}

func (v *stubViewer) PrepareView(context.Context, string, *entity.Item, entity.FieldInstance, entity.Display) error {
	v.prepared++
	return nil
}

func (v *stubViewer) ViewField(_ context.Context, _ string, item *entity.Item, field entity.FieldInstance, display entity.Display) (interfaces.FieldRender, error) {
	out := interfaces.FieldRender{}
	for delta, fi := range item.Items(field.FieldName) {
		value, ok := fi.String("value")
		if !ok {
			value, _ = fi.String("target_id")
		}
		out.Deltas = append(out.Deltas, interfaces.DeltaRender{
			Delta:  delta,
			Markup: fmt.Sprintf("<p class=%q>%s</p>", display.Type, value),
		})
	}
	return out, nil
}

func (v *stubViewer) ViewEntity(_ context.Context, entityType string, item *entity.Item, viewMode string) (string, error) {
	if v.empty[item.ID] {
		return "  ", nil
	}
	return fmt.Sprintf("<article>%s:%s:%s</article>", entityType, item.ID, viewMode), nil
}

type fixture struct {
	store    *content.MemoryStore
	catalog  *content.Catalog
	access   *content.RuleAccess
	viewer   *stubViewer
	patterns *schema.Registry
	schemas  *stubSchemas
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: content.NewMemoryStore(
			entity.EntityInfo{Type: "node"},
			entity.EntityInfo{Type: DefaultSchemaEntityType},
			entity.EntityInfo{Type: "field_collection_item"},
			entity.EntityInfo{Type: "taxonomy_term"},
		),
		catalog:  content.NewCatalog(),
		access:   content.NewRuleAccess(),
		viewer:   &stubViewer{empty: map[string]bool{}},
		patterns: schema.NewRegistry(),
		schemas:  newStubSchemas(),
	}

	for _, info := range []entity.FieldInfo{
		{Name: "field_pattern", Type: "text", Module: "text", DefaultFormatter: "text_plain"},
		{Name: "field_title", Type: "text", Module: "text", DefaultFormatter: "text_default"},
		{Name: "field_items", Type: "entityreference", Module: "entityreference", TargetType: DefaultSchemaEntityType, DefaultFormatter: "entity_view"},
		{Name: "field_tags", Type: "entityreference", Module: "entityreference", TargetType: "taxonomy_term", DefaultFormatter: "entity_label"},
		{Name: "field_pairs", Type: "field_collection", Module: "field_collection", TargetType: "field_collection_item", DefaultFormatter: "field_collection_view"},
		{Name: "field_missing", Type: "entityreference", Module: "entityreference", TargetType: "comment", DefaultFormatter: "entity_label"},
	} {
		f.catalog.RegisterField(info)
	}

	shown := func(typ string) map[string]entity.Display {
		return map[string]entity.Display{"default": {Type: typ}}
	}
	instances := []entity.FieldInstance{
		{FieldName: "field_pattern", EntityType: DefaultSchemaEntityType, Bundle: "page", Weight: -10,
			Displays: shown("hidden"), Pattern: entity.PatternSettings{PropertyName: "name"}},
		{FieldName: "field_title", EntityType: DefaultSchemaEntityType, Bundle: "page",
			Displays: shown("text_default"), Pattern: entity.PatternSettings{PropertyName: "title"}},
		{FieldName: "field_items", EntityType: DefaultSchemaEntityType, Bundle: "page", Weight: 1,
			Displays: map[string]entity.Display{"default": {Type: "entity_view", Settings: map[string]any{"view_mode": "teaser"}}},
			Pattern:  entity.PatternSettings{PropertyName: "items"}},
		{FieldName: "field_tags", EntityType: DefaultSchemaEntityType, Bundle: "page", Weight: 2,
			Displays: shown("entity_label"), Pattern: entity.PatternSettings{PropertyName: "tags"}},
		{FieldName: "field_missing", EntityType: DefaultSchemaEntityType, Bundle: "page", Weight: 3,
			Displays: shown("entity_label"), Pattern: entity.PatternSettings{PropertyName: "missing"}},
		{FieldName: "field_title", EntityType: DefaultSchemaEntityType, Bundle: "card",
			Displays: shown("text_default"), Pattern: entity.PatternSettings{PropertyName: "title"}},
		{FieldName: "field_items", EntityType: DefaultSchemaEntityType, Bundle: "card", Weight: 1,
			Displays: shown("entity_view"), Pattern: entity.PatternSettings{PropertyName: "items"}},
		{FieldName: "field_title", EntityType: DefaultSchemaEntityType, Bundle: "quote",
			Displays: shown("text_default"), Pattern: entity.PatternSettings{PropertyName: "title"}},
		{FieldName: "field_items", EntityType: "taxonomy_term", Bundle: "wrapper",
			Displays: shown("entity_view"), Pattern: entity.PatternSettings{PropertyName: "items"}},
		{FieldName: "field_pairs", EntityType: DefaultSchemaEntityType, Bundle: "page", Weight: 4,
			Displays: shown("field_collection_view"), Pattern: entity.PatternSettings{PropertyName: "pairs"}},
		{FieldName: "field_pattern", EntityType: DefaultSchemaEntityType, Bundle: "banner", Weight: -10,
			Displays: shown("hidden"), DefaultValue: []entity.FieldItem{{"value": "card"}},
			Pattern: entity.PatternSettings{PropertyName: "name", Readonly: true}},
		{FieldName: "field_title", EntityType: "field_collection_item", Bundle: "field_pairs",
			Displays: shown("text_default"), Pattern: entity.PatternSettings{PropertyName: "title"}},
	}
	for _, instance := range instances {
		if err := f.catalog.RegisterInstance(instance); err != nil {
			t.Fatalf("register instance %s: %v", instance.FieldName, err)
		}
	}
	f.patterns.BindBundle("card", "card")
	return f
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		Store:    f.store,
		Catalog:  f.catalog,
		Access:   f.access,
		Viewer:   f.viewer,
		Patterns: f.patterns,
		Schemas:  f.schemas,
	}
}

func (f *fixture) save(t *testing.T, item *entity.Item) *entity.Item {
	t.Helper()
	if err := f.store.Save(context.Background(), item); err != nil {
		t.Fatalf("save %s/%s: %v", item.Type, item.ID, err)
	}
	return item
}

func paragraph(id, bundle string, fields map[string][]entity.FieldItem) *entity.Item {
	return &entity.Item{
		Type:       DefaultSchemaEntityType,
		ID:         id,
		RevisionID: "r" + id,
		Bundle:     bundle,
		Fields:     fields,
	}
}

func pageItem(items ...entity.FieldItem) *entity.Item {
	return paragraph("1", "page", map[string][]entity.FieldItem{
		"field_pattern": {{"value": "page"}},
		"field_title":   {{"value": "Welcome"}},
		"field_items":   items,
	})
}

func ref(id string) entity.FieldItem {
	return entity.FieldItem{"target_id": id}
}

func markup(class, value string) string {
	return fmt.Sprintf("<p class=%q>%s</p>", class, value)
}

package content_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/content"
	"github.com/goliatone/go-patternbuilder/pkg/testsupport"
)

const catalogYAML = `
entity_types:
  - type: paragraphs_item
    label: Paragraph
  - type: node
    keys:
      id: nid
      revision: vid
fields:
  - name: field_title
    type: text
    module: text
    default_formatter: text_default
  - name: field_cards
    type: paragraphs
    target_type: paragraphs_item
instances:
  - field_name: field_cards
    entity_type: paragraphs_item
    bundle: hero
    weight: 5
    pattern:
      property_name: cards
  - field_name: field_title
    entity_type: paragraphs_item
    bundle: hero
    weight: 1
    displays:
      default:
        type: text_plain
    pattern:
      property_name: title
      parent_property_names: [heading]
      property_map:
        - key: value
          property: text
bundles:
  hero: hero
wrapped:
  - entity_type: node
    bundle: landing
    field: field_pattern
tuples:
  - entity_type: field_collection_item
    bundle: pairs
`

func TestCatalogDocumentApply(t *testing.T) {
	doc, err := content.ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	catalog := content.NewCatalog()
	store := content.NewMemoryStore()
	if err := doc.Apply(catalog, store); err != nil {
		t.Fatalf("apply: %v", err)
	}

	info, ok := store.EntityInfo("node")
	if !ok || info.Keys.ID != "nid" || info.Keys.Revision != "vid" {
		t.Fatalf("unexpected node info %+v", info)
	}
	if info, _ := store.EntityInfo("paragraphs_item"); info.Keys.ID != "target_id" {
		t.Fatalf("expected default id key, got %+v", info.Keys)
	}

	field, ok := catalog.FieldInfo("field_cards")
	if !ok || !field.IsReference() {
		t.Fatalf("expected reference field, got %+v", field)
	}

	instances := catalog.FieldInstances("paragraphs_item", "hero")
	if len(instances) != 2 || instances[0].FieldName != "field_title" {
		t.Fatalf("expected weight ordered instances, got %+v", instances)
	}
	title := instances[0]
	if title.Pattern.ParentPropertyNames[0] != "heading" || title.Pattern.PropertyMap[0] != (entity.PropertyMapping{Key: "value", Property: "text"}) {
		t.Fatalf("unexpected pattern settings %+v", title.Pattern)
	}
	if title.DisplayFor("full").Type != "text_plain" {
		t.Fatalf("expected default display fallback")
	}
	if doc.Bundles["hero"] != "hero" || doc.Wrapped[0].Field != "field_pattern" || doc.Tuples[0].Bundle != "pairs" {
		t.Fatalf("unexpected bindings %+v", doc)
	}

	binder := &recordingBinder{}
	doc.ApplyPatterns(binder)
	want := []string{"bundle:hero=hero", "wrap:node/landing.field_pattern", "tuple:field_collection_item/pairs"}
	if len(binder.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, binder.calls)
	}
	for idx := range want {
		if binder.calls[idx] != want[idx] {
			t.Fatalf("expected %v, got %v", want, binder.calls)
		}
	}
}

type recordingBinder struct {
	calls []string
}

func (b *recordingBinder) BindBundle(bundle, pattern string) {
	b.calls = append(b.calls, "bundle:"+bundle+"="+pattern)
}

func (b *recordingBinder) WrapField(entityType, bundle, field string) {
	b.calls = append(b.calls, "wrap:"+entityType+"/"+bundle+"."+field)
}

func (b *recordingBinder) MarkTuple(entityType, bundle string) {
	b.calls = append(b.calls, "tuple:"+entityType+"/"+bundle)
}

func TestCatalogRejectsIncompleteInstance(t *testing.T) {
	if err := content.NewCatalog().RegisterInstance(entity.FieldInstance{FieldName: "field_title"}); err == nil {
		t.Fatalf("expected error for instance without bundle")
	}
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	if err := testsupport.WriteFiles(dir, map[string]string{"catalog.yaml": catalogYAML}); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := content.LoadCatalogFile(filepath.Join(dir, "catalog.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(doc.Fields))
	}
	if _, err := content.LoadCatalogFile(filepath.Join(dir, "missing.yaml")); !os.IsNotExist(unwrapAll(err)) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func unwrapAll(err error) error {
	for {
		next, ok := err.(interface{ Unwrap() error })
		if !ok || next.Unwrap() == nil {
			return err
		}
		err = next.Unwrap()
	}
}

func TestLoadFixtures(t *testing.T) {
	fsys := fstest.MapFS{
		"items/cards.yaml": {Data: []byte(`
- type: paragraphs_item
  id: "2"
  revision_id: "20"
  bundle: card
  fields:
    field_title:
      - value: Card
`)},
		"items/hero.md": {Data: []byte(`---
type: paragraphs_item
id: "1"
revision_id: "10"
bundle: hero
label: Hero
fields:
  field_title:
    - value: Welcome
---
# Hello

Body copy.
`)},
		"items/notes.txt": {Data: []byte("ignored")},
	}
	store := content.NewMemoryStore(entity.EntityInfo{Type: "paragraphs_item"})

	saved, err := content.LoadFixtures(context.Background(), fsys, "items", store)
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if saved != 2 {
		t.Fatalf("expected 2 items, got %d", saved)
	}

	hero, err := store.LoadRevision(context.Background(), "paragraphs_item", "10")
	if err != nil {
		t.Fatalf("load hero: %v", err)
	}
	body := hero.Items(content.DefaultBodyField)
	if len(body) != 1 || body[0]["format"] != "markdown" || body[0]["value"] != "# Hello\n\nBody copy." {
		t.Fatalf("unexpected body field %+v", body)
	}
}

func TestParseMarkdownItemRequiresKeys(t *testing.T) {
	if _, err := content.ParseMarkdownItem([]byte("---\nbundle: hero\n---\nbody")); err == nil {
		t.Fatalf("expected error for fixture without type")
	}
}

func TestRuleAccess(t *testing.T) {
	ctx := context.Background()
	access := content.NewRuleAccess().DenyItem("paragraphs_item", "2").DenyType("node").DenyField("field_secret")
	visible := &entity.Item{Type: "paragraphs_item", ID: "1"}

	if !access.CanView(ctx, "paragraphs_item", visible) {
		t.Fatalf("expected item visible")
	}
	if access.CanView(ctx, "paragraphs_item", &entity.Item{ID: "2"}) {
		t.Fatalf("expected denied item")
	}
	if access.CanView(ctx, "node", &entity.Item{ID: "1"}) {
		t.Fatalf("expected denied type")
	}
	if access.CanViewField(ctx, "paragraphs_item", visible, "field_secret") {
		t.Fatalf("expected denied field")
	}
	if !access.CanViewField(ctx, "paragraphs_item", visible, "field_title") {
		t.Fatalf("expected visible field")
	}
}

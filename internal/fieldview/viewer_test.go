package fieldview_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/content"
	"github.com/goliatone/go-patternbuilder/internal/fieldview"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

type stubURLs struct{}

func (stubURLs) URL(path string, options map[string]any) (string, error) {
	if fragment, ok := options["fragment"]; ok {
		return "https://example.com/" + strings.TrimPrefix(path, "/") + "#" + fragment.(string), nil
	}
	return "https://example.com/" + strings.TrimPrefix(path, "/"), nil
}

func (stubURLs) FileURL(uri string) (string, error) {
	return "https://cdn.example.com/" + strings.TrimPrefix(uri, "public://"), nil
}

func (stubURLs) ImageStyleURL(style, uri string) (string, error) {
	return "https://cdn.example.com/styles/" + style + "/" + strings.TrimPrefix(uri, "public://"), nil
}

func newCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	catalog := content.NewCatalog()
	catalog.RegisterField(entity.FieldInfo{Name: "field_state", Type: "list_text", AllowedValues: []entity.AllowedValue{{Key: "draft", Label: "Draft <b>copy</b>"}}})
	catalog.RegisterField(entity.FieldInfo{Name: "field_author", Type: "entityreference", TargetType: "user"})
	for _, instance := range []entity.FieldInstance{
		{FieldName: "field_title", EntityType: "node", Bundle: "article", Displays: map[string]entity.Display{"default": {Type: "text_default"}}},
		{FieldName: "field_body", EntityType: "node", Bundle: "article", Weight: 1, Displays: map[string]entity.Display{
			"default": {Type: "text_markdown"},
			"teaser":  {Type: "hidden"},
		}},
	} {
		if err := catalog.RegisterInstance(instance); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	return catalog
}

func render(t *testing.T, viewer *fieldview.Viewer, field string, display entity.Display, values ...entity.FieldItem) []string {
	t.Helper()
	item := &entity.Item{Type: "node", ID: "1", Bundle: "article", Fields: map[string][]entity.FieldItem{field: values}}
	out, err := viewer.ViewField(context.Background(), "node", item, entity.FieldInstance{FieldName: field}, display)
	if err != nil {
		t.Fatalf("view %s: %v", field, err)
	}
	var markup []string
	for _, delta := range out.Deltas {
		markup = append(markup, delta.Markup)
	}
	return markup
}

func TestFormatters(t *testing.T) {
	store := content.NewMemoryStore(entity.EntityInfo{Type: "user"})
	if err := store.Save(context.Background(), &entity.Item{Type: "user", ID: "u1", Bundle: "user", Label: "Ada & co"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	viewer := fieldview.New(newCatalog(t), fieldview.WithURLs(stubURLs{}), fieldview.WithStore(store))

	cases := []struct {
		name    string
		field   string
		display entity.Display
		value   entity.FieldItem
		want    string
	}{
		{"text sanitized", "field_title", entity.Display{Type: "text_default"}, entity.FieldItem{"value": `<b onclick="x()">Hi</b>`}, "<b>Hi</b>"},
		{"safe value", "field_title", entity.Display{Type: "text_default"}, entity.FieldItem{"value": "raw", "safe_value": "<em>safe</em>"}, "<em>safe</em>"},
		{"plain", "field_title", entity.Display{Type: "text_plain"}, entity.FieldItem{"value": "<b>Fish</b> & chips"}, "Fish &amp; chips"},
		{"trimmed", "field_title", entity.Display{Type: "text_trimmed", Settings: map[string]any{"trim_length": 5}}, entity.FieldItem{"value": "Hello world"}, "Hello"},
		{"markdown", "field_body", entity.Display{Type: "text_markdown"}, entity.FieldItem{"value": "Some *em* text"}, "<p>Some <em>em</em> text</p>"},
		{"markdown sanitized", "field_body", entity.Display{Type: "text_markdown"}, entity.FieldItem{"value": "Hi <script>alert(1)</script>"}, "<p>Hi </p>"},
		{"link", "field_link", entity.Display{Type: "link_default"}, entity.FieldItem{"url": "about", "title": "About", "fragment": "team"}, `<a href="https://example.com/about#team">About</a>`},
		{"link url", "field_link", entity.Display{Type: "link_url"}, entity.FieldItem{"url": "about"}, "https://example.com/about"},
		{"image style", "field_image", entity.Display{Type: "image", Settings: map[string]any{"image_style": "thumb"}}, entity.FieldItem{"uri": "public://a.png", "alt": "A"}, `<img src="https://cdn.example.com/styles/thumb/a.png" alt="A">`},
		{"file", "field_file", entity.Display{Type: "file_default"}, entity.FieldItem{"uri": "public://docs/cv.pdf"}, `<a href="https://cdn.example.com/docs/cv.pdf">cv.pdf</a>`},
		{"list label", "field_state", entity.Display{Type: "list_default"}, entity.FieldItem{"value": "draft"}, "Draft &lt;b&gt;copy&lt;/b&gt;"},
		{"list key", "field_state", entity.Display{Type: "list_key"}, entity.FieldItem{"value": "draft"}, "draft"},
		{"number", "field_price", entity.Display{Type: "number_default", Settings: map[string]any{"scale": 2}}, entity.FieldItem{"value": "3.14159"}, "3.14"},
		{"entity label", "field_author", entity.Display{Type: "entity_label"}, entity.FieldItem{"target_id": "u1"}, "Ada &amp; co"},
		{"unknown display", "field_title", entity.Display{Type: "custom"}, entity.FieldItem{"value": "Fallback"}, "Fallback"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := render(t, viewer, tc.field, tc.display, tc.value)
			if diff := cmp.Diff([]string{tc.want}, got); diff != "" {
				t.Fatalf("unexpected markup (-want +got):\n%s", diff)
			}
		})
	}
}

func TestViewFieldDeniedByAccess(t *testing.T) {
	access := content.NewRuleAccess().DenyField("field_title")
	viewer := fieldview.New(newCatalog(t), fieldview.WithAccess(access))
	item := &entity.Item{Type: "node", ID: "1", Bundle: "article", Fields: map[string][]entity.FieldItem{"field_title": {{"value": "x"}}}}

	out, err := viewer.ViewField(context.Background(), "node", item, entity.FieldInstance{FieldName: "field_title"}, entity.Display{Type: "text_default"})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !out.Denied || len(out.Deltas) != 0 {
		t.Fatalf("expected denied render, got %+v", out)
	}
}

func TestViewEntityRendersVisibleFields(t *testing.T) {
	viewer := fieldview.New(newCatalog(t))
	item := &entity.Item{Type: "node", ID: "1", Bundle: "article", Fields: map[string][]entity.FieldItem{
		"field_title": {{"value": "Title"}},
		"field_body":  {{"value": "Body"}},
	}}

	full, err := viewer.ViewEntity(context.Background(), "node", item, "full")
	if err != nil {
		t.Fatalf("view entity: %v", err)
	}
	if want := `<div class="entity entity-node node-article">Title<p>Body</p></div>`; full != want {
		t.Fatalf("expected %q, got %q", want, full)
	}

	teaser, err := viewer.ViewEntity(context.Background(), "node", item, "teaser")
	if err != nil {
		t.Fatalf("view entity: %v", err)
	}
	if strings.Contains(teaser, "Body") {
		t.Fatalf("expected body hidden in teaser, got %q", teaser)
	}

	empty, _ := viewer.ViewEntity(context.Background(), "node", &entity.Item{Type: "node", ID: "2", Bundle: "article"}, "full")
	if empty != "" {
		t.Fatalf("expected empty markup for item without values, got %q", empty)
	}
}

func TestPrepareViewCounts(t *testing.T) {
	viewer := fieldview.New(newCatalog(t))
	item := &entity.Item{Type: "node", ID: "1", Bundle: "article"}
	field := entity.FieldInstance{FieldName: "field_title"}
	display := entity.Display{Type: "text_default"}

	for range 2 {
		if err := viewer.PrepareView(context.Background(), "node", item, field, display); err != nil {
			t.Fatalf("prepare: %v", err)
		}
	}
	if got := viewer.Prepared("node", "field_title", "text_default"); got != 2 {
		t.Fatalf("expected 2 preparations, got %d", got)
	}
	if err := viewer.PrepareView(context.Background(), "node", nil, field, display); err == nil {
		t.Fatalf("expected error for nil item")
	}
}

func TestCustomFormatter(t *testing.T) {
	viewer := fieldview.New(nil, fieldview.WithFormatter("shout", func(_ context.Context, fc fieldview.FormatContext) (string, error) {
		return strings.ToUpper(fc.Text()), nil
	}))
	if got := render(t, viewer, "field_title", entity.Display{Type: "shout"}, entity.FieldItem{"value": "hey"}); got[0] != "HEY" {
		t.Fatalf("expected custom formatter output, got %v", got)
	}
}

var _ interfaces.FieldViewer = (*fieldview.Viewer)(nil)

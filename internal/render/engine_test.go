package render_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-patternbuilder/internal/render"
)

func newEngine(t *testing.T, opts ...render.Option) *render.Engine {
	t.Helper()
	files := fstest.MapFS{
		"page.html":        {Data: []byte(`<main id="{{ meta.uniqueId }}">{{ title }}{% for item in items %}{{ item }}{% endfor %}</main>`)},
		"card.html":        {Data: []byte(`<section class="card"><h2>{{ title }}</h2></section>`)},
		"aurora/card.html": {Data: []byte(`<aside>{{ title }} {{ theme.name }}</aside>`)},
	}
	engine, err := render.New(append([]render.Option{render.WithFS(files)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func pageTree() map[string]any {
	return map[string]any{
		"name":  "page",
		"title": "<b>Hi</b>",
		"meta":  map[string]any{"uniqueId": "1"},
		"items": []any{
			map[string]any{"name": "card", "title": "A"},
			map[string]any{"name": "pb_raw", "content": "<p>x</p>"},
			map[string]any{"name": "pb_entity", "content": "<article>e</article>", "classes_array": []any{"pb-entity-node", "pb-entity-node-teaser"}},
		},
	}
}

func TestRenderTree(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.RenderTree(context.Background(), pageTree())
	if err != nil {
		t.Fatalf("render tree: %v", err)
	}
	want := `<main id="1"><b>Hi</b><section class="card"><h2>A</h2></section><p>x</p>` +
		`<div class="pb-entity pb-entity-node pb-entity-node-teaser"><article>e</article></div></main>`
	if got != want {
		t.Fatalf("unexpected markup\nwant %s\ngot  %s", want, got)
	}
}

func TestRenderTreeMissingTemplate(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTree(context.Background(), map[string]any{"name": "missing"}); err == nil {
		t.Fatalf("expected error for missing template")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.RenderTree(ctx, pageTree()); err == nil {
		t.Fatalf("expected context error")
	}
}

type stubTheme struct{}

func (stubTheme) Template(name, fallback string) string {
	if name == "card" {
		return "aurora/card.html"
	}
	return fallback
}

func (stubTheme) Globals() map[string]any {
	return map[string]any{"theme": map[string]any{"name": "aurora"}}
}

func TestRenderUsesThemeTemplates(t *testing.T) {
	engine := newEngine(t, render.WithTheme(stubTheme{}))
	var buf bytes.Buffer
	got, err := engine.RenderTemplate("card", map[string]any{"title": "A"}, &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<aside>A aurora</aside>" || buf.String() != got {
		t.Fatalf("unexpected themed output %q (writer %q)", got, buf.String())
	}
}

func TestRenderStringAndFilters(t *testing.T) {
	engine := newEngine(t, render.WithGlobals(map[string]any{"site": "Example"}))
	if err := engine.RegisterFilter("pbshout", func(in any, _ any) (any, error) {
		return strings.ToUpper(in.(string)), nil
	}); err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("pbshout", func(in any, _ any) (any, error) { return in, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	got, err := engine.Render(`{{ site }} {{ word|pbshout }}`, map[string]any{"word": "hey"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "Example HEY" {
		t.Fatalf("unexpected output %q", got)
	}
	if err := engine.GlobalContext("nope"); err == nil {
		t.Fatalf("expected error for non-map globals")
	}
}

func TestSelectThemeUnknown(t *testing.T) {
	if _, err := render.SelectTheme(render.ThemeOptions{Theme: "missing"}); err == nil {
		t.Fatalf("expected error selecting unknown theme")
	}
	var theme *render.Theme
	if got := theme.Template("card", "card.html"); got != "card.html" {
		t.Fatalf("expected fallback from nil theme, got %q", got)
	}
}

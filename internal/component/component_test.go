package component

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-patternbuilder/entity"
)

func heroSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"items": map[string]any{"type": "array"},
			"meta": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tags": map[string]any{"type": "array"},
				},
			},
		},
	}
}

func TestComponentSetBySchemaType(t *testing.T) {
	c := New("hero", heroSchema())

	c.Set("title", "first")
	c.Set("title", "second")
	c.Set("items", "a")
	c.Set("items", "b")
	c.Set("meta", map[string]any{"uniqueId": "7", "tags": "x"})
	c.Set("meta", map[string]any{"tags": "y"})

	want := map[string]any{
		"name":  "hero",
		"title": "second",
		"items": []any{"a", "b"},
		"meta": map[string]any{
			"uniqueId": "7",
			"tags":     []any{"x", "y"},
		},
	}
	if diff := cmp.Diff(want, c.Render()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
	if got := c.Properties(); len(got) != 3 || got[0] != "title" {
		t.Fatalf("expected assignment order, got %v", got)
	}
}

func TestComponentRendersNestedProperties(t *testing.T) {
	child := New("card", nil)
	child.Set("body", "<p>x</p>")

	raw := NewValue().SetByAssoc(map[string]any{"name": "pb_raw", "content": "<b>y</b>"})

	parent := New("hero", heroSchema())
	parent.Set("items", child)
	parent.Set("items", raw)
	parent.Set("items", NewTuple())

	want := map[string]any{
		"name": "hero",
		"items": []any{
			map[string]any{"name": "card", "body": "<p>x</p>"},
			map[string]any{"name": "pb_raw", "content": "<b>y</b>"},
			[]any{},
		},
	}
	if diff := cmp.Diff(want, parent.Render()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestComponentLooseMergeWithoutSchema(t *testing.T) {
	c := New("free", nil)
	c.Set("a", map[string]any{"b": map[string]any{"c": 1}})
	c.Set("a", map[string]any{"b": map[string]any{"d": 2}})

	want := map[string]any{"b": map[string]any{"c": 1, "d": 2}}
	if diff := cmp.Diff(want, c.Get("a")); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestComponentCloneDropsValues(t *testing.T) {
	item := &entity.Item{Type: "paragraphs_item", ID: "1"}
	c := New("hero", heroSchema()).Source(item, "paragraphs_item")
	c.Set("title", "x")

	clone := c.Clone()
	if !clone.Empty() {
		t.Fatalf("expected clone without values, got %v", clone.PrepareRender())
	}
	gotItem, gotType := clone.SourceItem()
	if gotItem != item || gotType != "paragraphs_item" {
		t.Fatalf("expected source carried over, got %v %s", gotItem, gotType)
	}
	if clone.PropertyType("items") != "array" {
		t.Fatalf("expected array property type, got %q", clone.PropertyType("items"))
	}
}

func TestSchemaTypeInference(t *testing.T) {
	cases := []struct {
		schema map[string]any
		want   string
	}{
		{map[string]any{"type": []any{"null", "array"}}, "array"},
		{map[string]any{"items": map[string]any{}}, "array"},
		{map[string]any{"properties": map[string]any{}}, "object"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := schemaType(tc.schema); got != tc.want {
			t.Fatalf("schemaType(%v) = %q, want %q", tc.schema, got, tc.want)
		}
	}
}

func TestTupleAppends(t *testing.T) {
	tuple := NewTuple()
	tuple.Set("ignored", "a")
	tuple.Append(NewValue().SetByAssoc(map[string]any{"k": "v"}))

	want := []any{"a", map[string]any{"k": "v"}}
	if diff := cmp.Diff(want, tuple.Render()); diff != "" {
		t.Fatalf("tuple mismatch (-want +got):\n%s", diff)
	}
	if tuple.Len() != 2 {
		t.Fatalf("expected 2 members, got %d", tuple.Len())
	}
}

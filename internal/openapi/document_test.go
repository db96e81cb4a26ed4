package openapi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPatternDocumentMap(t *testing.T) {
	doc := NewPatternDocument("Card", "2.0.0", PatternMeta{Name: "card", Status: "active", Type: "pattern"}).
		WithSchema("card", map[string]any{"type": "object"}).
		WithSchema("", map[string]any{"type": "string"})

	want := map[string]any{
		"openapi": Version,
		"info":    map[string]any{"title": "Card", "version": "2.0.0"},
		"paths":   map[string]any{},
		"components": map[string]any{
			"schemas": map[string]any{"card": map[string]any{"type": "object"}},
		},
		PatternExtensionKey: map[string]any{"pattern": "card", "status": "active", "type": "pattern"},
	}
	if diff := cmp.Diff(want, doc.Map()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestPatternDocumentWithoutSchemas(t *testing.T) {
	out := NewPatternDocument("Empty", "1.0.0", PatternMeta{}).Map()
	if _, ok := out["components"]; ok {
		t.Fatalf("expected no components, got %v", out["components"])
	}
	if _, ok := out[PatternExtensionKey]; ok {
		t.Fatalf("expected no pattern extension without a name")
	}
}

package noop

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

func TestCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	cache := Cache()
	if err := cache.Set(ctx, "patternbuilder:schema:hero", map[string]any{"type": "object"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := cache.Get(ctx, "patternbuilder:schema:hero")
	if err != nil || value != nil {
		t.Fatalf("expected miss, got %v %v", value, err)
	}
	if _, ok := cache.(interfaces.PrefixCache); !ok {
		t.Fatalf("expected prefix support")
	}
}

func TestTemplateRendersNothing(t *testing.T) {
	out, err := Template().Render("pb_raw", map[string]any{"content": "x"})
	if err != nil || out != "" {
		t.Fatalf("expected empty render, got %q %v", out, err)
	}
}

func TestActivitySinkAcceptsRecords(t *testing.T) {
	if err := ActivitySink().Log(context.Background(), interfaces.ActivityRecord{Verb: "cache.clear"}); err != nil {
		t.Fatalf("log: %v", err)
	}
}

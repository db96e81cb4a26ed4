package patternscmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/builder"
	"github.com/goliatone/go-patternbuilder/internal/logging"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type trackingCache struct {
	cleared    []string
	clearedAll int
	err        error
}

func (c *trackingCache) ClearCache(_ context.Context, name string) error {
	c.cleared = append(c.cleared, name)
	return c.err
}

func (c *trackingCache) ClearAllCache(context.Context) error {
	c.clearedAll++
	return c.err
}

type recordingSink struct {
	records []interfaces.ActivityRecord
}

func (s *recordingSink) Log(_ context.Context, record interfaces.ActivityRecord) error {
	s.records = append(s.records, record)
	return nil
}

type stubRenderer struct {
	result builder.Result
	err    error
	calls  []string
}

func (r *stubRenderer) RenderByID(_ context.Context, entityType, id, revisionID string, view entity.ViewContext) (builder.Result, error) {
	r.calls = append(r.calls, entityType+":"+id+"@"+revisionID+"/"+view.String())
	return r.result, r.err
}

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func testOptions(sink interfaces.ActivitySink) Options {
	return Options{Logger: logging.NoOp(), Activity: sink, Clock: func() time.Time { return fixedNow }}
}

func TestClearSchemaCacheSingle(t *testing.T) {
	cache := &trackingCache{}
	sink := &recordingSink{}
	actor := uuid.New()
	handler := NewClearSchemaCacheHandler(cache, testOptions(sink))

	if err := handler.Execute(context.Background(), ClearSchemaCacheCommand{Schema: "hero", ActorID: actor.String()}); err != nil {
		t.Fatalf("execute clear: %v", err)
	}
	if len(cache.cleared) != 1 || cache.cleared[0] != "hero" || cache.clearedAll != 0 {
		t.Fatalf("unexpected cache calls: %+v", cache)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected one activity record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.Verb != "schema.cache.clear" || record.ObjectID != "hero" || record.ActorID != actor {
		t.Fatalf("unexpected activity record: %+v", record)
	}
	if record.Channel != "patternbuilder" || !record.OccurredAt.Equal(fixedNow) {
		t.Fatalf("unexpected activity metadata: %+v", record)
	}
}

func TestClearSchemaCacheAll(t *testing.T) {
	cache := &trackingCache{}
	sink := &recordingSink{}
	handler := NewClearSchemaCacheHandler(cache, testOptions(sink))

	if err := handler.Execute(context.Background(), ClearSchemaCacheCommand{}); err != nil {
		t.Fatalf("execute clear all: %v", err)
	}
	if cache.clearedAll != 1 || len(cache.cleared) != 0 {
		t.Fatalf("unexpected cache calls: %+v", cache)
	}
	if sink.records[0].ObjectID != "*" || sink.records[0].Data["scope"] != "all" {
		t.Fatalf("unexpected activity record: %+v", sink.records[0])
	}
}

func TestClearSchemaCacheValidation(t *testing.T) {
	cache := &trackingCache{}
	handler := NewClearSchemaCacheHandler(cache, testOptions(nil))

	for _, msg := range []ClearSchemaCacheCommand{
		{Schema: "../etc/passwd"},
		{Schema: "hero", ActorID: "not-a-uuid"},
	} {
		err := handler.Execute(context.Background(), msg)
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("expected validation error for %+v, got %v", msg, err)
		}
	}
	if cache.clearedAll != 0 || len(cache.cleared) != 0 {
		t.Fatalf("expected no cache calls, got %+v", cache)
	}
}

func TestClearSchemaCachePropagatesFailure(t *testing.T) {
	failure := errors.New("cache offline")
	sink := &recordingSink{}
	handler := NewClearSchemaCacheHandler(&trackingCache{err: failure}, testOptions(sink))

	err := handler.Execute(context.Background(), ClearSchemaCacheCommand{Schema: "hero"})
	if !errors.Is(err, failure) {
		t.Fatalf("expected cache failure, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no activity on failure, got %d", len(sink.records))
	}
}

func TestRenderPattern(t *testing.T) {
	renderer := &stubRenderer{result: builder.Result{
		Schema: "card",
		Tree:   map[string]any{"name": "card"},
		Markup: "<div>card</div>",
		View:   entity.ViewMode("teaser"),
	}}
	sink := &recordingSink{}
	handler := NewRenderPatternHandler(renderer, testOptions(sink))

	var result builder.Result
	err := handler.Execute(context.Background(), RenderPatternCommand{
		EntityType: "paragraphs_item",
		ID:         "2",
		ViewMode:   "teaser",
		Result:     &result,
	})
	if err != nil {
		t.Fatalf("execute render: %v", err)
	}
	if result.Markup != "<div>card</div>" {
		t.Fatalf("expected markup to be returned, got %q", result.Markup)
	}
	if len(renderer.calls) != 1 || renderer.calls[0] != "paragraphs_item:2@/teaser" {
		t.Fatalf("unexpected renderer calls: %v", renderer.calls)
	}
	if len(sink.records) != 1 || sink.records[0].Data["schema"] != "card" {
		t.Fatalf("unexpected activity: %+v", sink.records)
	}
}

func TestRenderPatternValidation(t *testing.T) {
	renderer := &stubRenderer{}
	handler := NewRenderPatternHandler(renderer, testOptions(nil))

	for _, msg := range []RenderPatternCommand{
		{ID: "2"},
		{EntityType: "paragraphs_item"},
		{EntityType: "paragraphs item", ID: "2"},
	} {
		err := handler.Execute(context.Background(), msg)
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("expected validation error for %+v, got %v", msg, err)
		}
	}
	if len(renderer.calls) != 0 {
		t.Fatalf("expected renderer not to run, got %v", renderer.calls)
	}

	if err := handler.Execute(context.Background(), RenderPatternCommand{EntityType: "paragraphs_item", RevisionID: "r2"}); !errors.Is(err, ErrPatternNotBuilt) {
		t.Fatalf("expected revision-only lookups to validate and report ErrPatternNotBuilt, got %v", err)
	}
}

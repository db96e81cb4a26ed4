package noop

import (
	"context"
	"io"
	"time"

	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// Cache returns an interfaces.CacheProvider that stores nothing. Every Get
// is a miss.
func Cache() interfaces.CacheProvider {
	return cacheAdapter{}
}

type cacheAdapter struct{}

func (cacheAdapter) Get(context.Context, string) (any, error) {
	return nil, nil
}

func (cacheAdapter) Set(context.Context, string, any, time.Duration) error {
	return nil
}

func (cacheAdapter) Delete(context.Context, string) error {
	return nil
}

func (cacheAdapter) Clear(context.Context) error {
	return nil
}

func (cacheAdapter) DeleteByPrefix(context.Context, string) error {
	return nil
}

// Template returns a template renderer that renders empty markup.
func Template() interfaces.TemplateRenderer {
	return templateAdapter{}
}

type templateAdapter struct{}

func (templateAdapter) Render(string, any, ...io.Writer) (string, error) {
	return "", nil
}

func (templateAdapter) RenderTemplate(string, any, ...io.Writer) (string, error) {
	return "", nil
}

func (templateAdapter) RenderString(string, any, ...io.Writer) (string, error) {
	return "", nil
}

func (templateAdapter) RegisterFilter(string, func(any, any) (any, error)) error {
	return nil
}

func (templateAdapter) GlobalContext(any) error {
	return nil
}

// ActivitySink returns a sink that drops activity records.
func ActivitySink() interfaces.ActivitySink {
	return activitySink{}
}

type activitySink struct{}

func (activitySink) Log(context.Context, interfaces.ActivityRecord) error {
	return nil
}

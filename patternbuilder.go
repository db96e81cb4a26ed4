package patternbuilder

import (
	"context"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/builder"
	patternscmd "github.com/goliatone/go-patternbuilder/internal/commands/patterns"
	"github.com/goliatone/go-patternbuilder/internal/di"
	"github.com/goliatone/go-patternbuilder/internal/display"
	"github.com/goliatone/go-patternbuilder/internal/schema"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// Builder exports the pattern builder so hosts can drive a single pass.
type Builder = builder.Builder

// BuilderDependencies exports the collaborators a Builder is created with.
type BuilderDependencies = builder.Dependencies

// RenderResult exports the outcome of rendering one item.
type RenderResult = builder.Result

// DisplayRegistry exports the field type to display handler registry.
type DisplayRegistry = display.Registry

// SchemaRegistry exports the pattern registry.
type SchemaRegistry = schema.Registry

// Pattern exports a registered pattern definition.
type Pattern = schema.Pattern

// RenderPatternCommand exports the render command message.
type RenderPatternCommand = patternscmd.RenderPatternCommand

// ClearSchemaCacheCommand exports the schema cache command message.
type ClearSchemaCacheCommand = patternscmd.ClearSchemaCacheCommand

// ErrPatternNotBuilt is returned by the render command when no pattern applies.
var ErrPatternNotBuilt = patternscmd.ErrPatternNotBuilt

// ErrItemNotFound is returned when a store lookup yields nothing.
var ErrItemNotFound = builder.ErrItemNotFound

// Module is the top level pattern builder façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Close releases resources opened by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// NewBuilder starts a pass for item. The builder is not safe for concurrent use.
func (m *Module) NewBuilder(ctx context.Context, entityType string, item *entity.Item) *Builder {
	return builder.New(ctx, m.container.BuilderDependencies(), entityType, item)
}

// Render builds and renders item for view.
func (m *Module) Render(ctx context.Context, entityType string, item *entity.Item, view entity.ViewContext) (RenderResult, error) {
	return m.container.Service().Render(ctx, entityType, item, view)
}

// RenderByID loads an item, or one of its revisions, and renders it.
func (m *Module) RenderByID(ctx context.Context, entityType, id, revisionID string, view entity.ViewContext) (RenderResult, error) {
	return m.container.Service().RenderByID(ctx, entityType, id, revisionID, view)
}

// Execute runs the render command, recording activity for the actor.
func (m *Module) Execute(ctx context.Context, cmd RenderPatternCommand) error {
	return m.container.RenderPatternHandler().Execute(ctx, cmd)
}

// ClearSchemaCache runs the schema cache command.
func (m *Module) ClearSchemaCache(ctx context.Context, cmd ClearSchemaCacheCommand) error {
	return m.container.ClearSchemaCacheHandler().Execute(ctx, cmd)
}

// Patterns returns the pattern registry.
func (m *Module) Patterns() *SchemaRegistry {
	return m.container.SchemaRegistry()
}

// Displays returns the display handler registry.
func (m *Module) Displays() *DisplayRegistry {
	return m.container.Displays()
}

// Store returns the item store.
func (m *Module) Store() interfaces.EntityStore {
	return m.container.Store()
}

// Logger returns the module logger.
func (m *Module) Logger() interfaces.Logger {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Logger()
}

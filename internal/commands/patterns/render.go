package patternscmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/builder"
	"github.com/goliatone/go-patternbuilder/internal/commands"
	"github.com/goliatone/go-patternbuilder/internal/logging"
)

const renderPatternMessageType = "patternbuilder.patterns.render"

// ErrPatternNotBuilt reports an item without a resolvable pattern.
var ErrPatternNotBuilt = errors.New("render command: item has no pattern")

// Renderer loads and renders stored items.
type Renderer interface {
	RenderByID(ctx context.Context, entityType, id, revisionID string, view entity.ViewContext) (builder.Result, error)
}

// RenderPatternCommand renders a stored item. Result, when set, receives the
// rendered tree and markup.
type RenderPatternCommand struct {
	EntityType string
	ID         string
	RevisionID string
	ViewMode   string
	ActorID    string
	Result     *builder.Result
}

// Type implements command.Message.
func (RenderPatternCommand) Type() string { return renderPatternMessageType }

// Validate satisfies command.Message.
func (m RenderPatternCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.EntityType, validation.Required, validation.Match(schemaNamePattern)),
		validation.Field(&m.ID, validation.When(strings.TrimSpace(m.RevisionID) == "", validation.Required)),
		validation.Field(&m.ViewMode, validation.Length(0, 64)),
		validation.Field(&m.ActorID, validation.By(validActor)),
	)
}

// RenderPatternHandler renders items through a Renderer.
type RenderPatternHandler struct {
	inner *commands.Handler[RenderPatternCommand]
}

// NewRenderPatternHandler constructs a handler over renderer.
func NewRenderPatternHandler(renderer Renderer, options Options, opts ...commands.HandlerOption[RenderPatternCommand]) *RenderPatternHandler {
	options = options.withDefaults()
	logger := commands.EnsureLogger(options.Logger)

	exec := func(ctx context.Context, msg RenderPatternCommand) error {
		view := entity.ViewMode(msg.ViewMode)
		result, err := renderer.RenderByID(ctx, msg.EntityType, msg.ID, msg.RevisionID, view)
		if msg.Result != nil {
			*msg.Result = result
		}
		if err != nil {
			return err
		}
		if !result.Built() {
			return fmt.Errorf("%w: %s %s", ErrPatternNotBuilt, msg.EntityType, firstNonEmpty(msg.ID, msg.RevisionID))
		}

		if err := options.record(ctx, msg.ActorID, "pattern.render", msg.EntityType, firstNonEmpty(msg.ID, msg.RevisionID), map[string]any{
			"schema":      result.Schema,
			"view_mode":   result.View.String(),
			"revision_id": msg.RevisionID,
		}); err != nil {
			logger.Warn("patterns.command.render.activity_failed", "error", err)
		}
		logging.WithFields(logger, map[string]any{
			"entity_type": msg.EntityType,
			"schema":      result.Schema,
		}).Debug("patterns.command.render.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[RenderPatternCommand]{
		commands.WithLogger[RenderPatternCommand](logger),
		commands.WithOperation[RenderPatternCommand]("patterns.render"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RenderPatternHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RenderPatternCommand].
func (h *RenderPatternHandler) Execute(ctx context.Context, msg RenderPatternCommand) error {
	return h.inner.Execute(ctx, msg)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

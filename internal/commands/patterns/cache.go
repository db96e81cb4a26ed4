package patternscmd

import (
	"context"
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-patternbuilder/internal/commands"
	"github.com/goliatone/go-patternbuilder/internal/logging"
)

const clearSchemaCacheMessageType = "patternbuilder.schemas.cache.clear"

var (
	errInvalidActor   = errors.New("must be a valid UUID")
	schemaNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// SchemaCache drops resolved schema documents.
type SchemaCache interface {
	ClearCache(ctx context.Context, name string) error
	ClearAllCache(ctx context.Context) error
}

// ClearSchemaCacheCommand drops the cached schema of one pattern, or of every
// pattern when Schema is empty.
type ClearSchemaCacheCommand struct {
	Schema  string
	ActorID string
}

// Type implements command.Message.
func (ClearSchemaCacheCommand) Type() string { return clearSchemaCacheMessageType }

// Validate satisfies command.Message.
func (m ClearSchemaCacheCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Schema, validation.Length(0, 128), validation.Match(schemaNamePattern)),
		validation.Field(&m.ActorID, validation.By(validActor)),
	)
}

// ClearSchemaCacheHandler clears schema caches and records the flush.
type ClearSchemaCacheHandler struct {
	inner *commands.Handler[ClearSchemaCacheCommand]
}

// NewClearSchemaCacheHandler constructs a handler over cache.
func NewClearSchemaCacheHandler(cache SchemaCache, options Options, opts ...commands.HandlerOption[ClearSchemaCacheCommand]) *ClearSchemaCacheHandler {
	options = options.withDefaults()
	logger := commands.EnsureLogger(options.Logger)

	exec := func(ctx context.Context, msg ClearSchemaCacheCommand) error {
		name := strings.TrimSpace(msg.Schema)
		scope := "one"
		if name == "" {
			scope = "all"
			if err := cache.ClearAllCache(ctx); err != nil {
				return err
			}
		} else if err := cache.ClearCache(ctx, name); err != nil {
			return err
		}

		objectID := name
		if objectID == "" {
			objectID = "*"
		}
		if err := options.record(ctx, msg.ActorID, "schema.cache.clear", "pattern_schema", objectID, map[string]any{
			"scope": scope,
		}); err != nil {
			logger.Warn("patterns.command.cache.activity_failed", "error", err)
		}
		logging.WithFields(logger, map[string]any{
			"schema": objectID,
			"scope":  scope,
		}).Info("patterns.command.cache.cleared")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ClearSchemaCacheCommand]{
		commands.WithLogger[ClearSchemaCacheCommand](logger),
		commands.WithOperation[ClearSchemaCacheCommand]("schemas.cache.clear"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ClearSchemaCacheHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ClearSchemaCacheCommand].
func (h *ClearSchemaCacheHandler) Execute(ctx context.Context, msg ClearSchemaCacheCommand) error {
	return h.inner.Execute(ctx, msg)
}

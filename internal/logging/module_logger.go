package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

const (
	rootModule    = "patternbuilder"
	builderModule = "patternbuilder.builder"
	schemaModule  = "patternbuilder.schema"
	displayModule = "patternbuilder.display"
	storeModule   = "patternbuilder.store"
)

const (
	fieldEntityType = "entity_type"
	fieldEntityID   = "entity_id"
	fieldRevisionID = "revision_id"
	fieldViewMode   = "view_mode"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// BuilderLogger returns the logger namespace used by component tree builders.
func BuilderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, builderModule)
}

// SchemaLogger returns the logger namespace used by the schema loader.
func SchemaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schemaModule)
}

// DisplayLogger returns the logger namespace used by display handlers.
func DisplayLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, displayModule)
}

// StoreLogger returns the logger namespace used by item stores.
func StoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storeModule)
}

// WithItemContext attaches the item identity and view mode to the logger.
// Empty values are ignored.
func WithItemContext(logger interfaces.Logger, entityType, id, revisionID, viewMode string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(entityType); trimmed != "" {
		fields[fieldEntityType] = trimmed
	}
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		fields[fieldEntityID] = trimmed
	}
	if trimmed := strings.TrimSpace(revisionID); trimmed != "" {
		fields[fieldRevisionID] = trimmed
	}
	if trimmed := strings.TrimSpace(viewMode); trimmed != "" {
		fields[fieldViewMode] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}

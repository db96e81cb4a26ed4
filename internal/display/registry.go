package display

import (
	"context"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/logging"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// FieldTypeBoolean is the field type served by the boolean handler.
const FieldTypeBoolean = "list_boolean"

// Deps are the collaborators shared by every handler.
type Deps struct {
	Catalog   interfaces.FieldCatalog
	Viewer    interfaces.FieldViewer
	URLs      interfaces.URLGenerator
	Sanitizer interfaces.Sanitizer
	Logger    interfaces.Logger
	Options   Options
}

func (d Deps) withDefaults() Deps {
	if d.Catalog == nil {
		d.Catalog = emptyCatalog{}
	}
	if d.Sanitizer == nil {
		d.Sanitizer = bluemonday.StrictPolicy()
	}
	if d.Logger == nil {
		d.Logger = logging.NoOp()
	}
	d.Options = d.Options.withDefaults()
	return d
}

// Factory creates a handler for a field display.
type Factory func(ctx context.Context, deps Deps, prepared *PreparedSet, params Params) Handler

// Registry maps field types to handler factories.
type Registry struct {
	mu        sync.RWMutex
	deps      Deps
	fallback  Factory
	factories map[string]Factory
}

// NewRegistry returns a registry with the default and boolean handlers.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{
		deps:      deps.withDefaults(),
		fallback:  DefaultFactory,
		factories: map[string]Factory{},
	}
	r.Register(FieldTypeBoolean, BooleanFactory)
	return r
}

// DefaultFactory builds the base handler.
func DefaultFactory(ctx context.Context, deps Deps, prepared *PreparedSet, params Params) Handler {
	return NewHandler(ctx, deps, prepared, params)
}

// Register binds a factory to a field type, replacing any previous entry.
func (r *Registry) Register(fieldType string, factory Factory) {
	fieldType = strings.TrimSpace(fieldType)
	if fieldType == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[fieldType] = factory
}

// SetDefault replaces the factory used for unregistered field types.
func (r *Registry) SetDefault(factory Factory) {
	if factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = factory
}

// Factory returns the factory serving fieldType.
func (r *Registry) Factory(fieldType string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if factory, ok := r.factories[fieldType]; ok {
		return factory
	}
	return r.fallback
}

// Handler creates the display handler for a field instance.
func (r *Registry) Handler(ctx context.Context, prepared *PreparedSet, params Params) Handler {
	fieldType := ""
	if info, ok := r.deps.Catalog.FieldInfo(params.Instance.FieldName); ok {
		fieldType = info.Type
	}
	return r.Factory(fieldType)(ctx, r.deps, prepared, params)
}

// Deps returns the collaborators handed to factories.
func (r *Registry) Deps() Deps {
	return r.deps
}

type emptyCatalog struct{}

func (emptyCatalog) FieldInfo(string) (entity.FieldInfo, bool) {
	return entity.FieldInfo{}, false
}

func (emptyCatalog) FieldInstances(string, string) []entity.FieldInstance {
	return nil
}

func (emptyCatalog) FieldInstance(string, string, string) (entity.FieldInstance, bool) {
	return entity.FieldInstance{}, false
}

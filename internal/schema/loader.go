package schema

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-patternbuilder/internal/component"
	"github.com/goliatone/go-patternbuilder/internal/logging"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

const (
	// CachePrefix namespaces every cache key written by the schema layer.
	CachePrefix = "patternbuilder:"

	schemaCachePrefix = "patternbuilder:schema:"
)

// Loader turns pattern short names into fresh components backed by resolved
// schemas.
type Loader struct {
	registry  *Registry
	resolver  *Resolver
	cache     interfaces.CacheProvider
	ttl       time.Duration
	logger    interfaces.Logger
	documents DocumentRegistry

	mu        sync.Mutex
	published map[string]struct{}
}

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

// WithCache caches resolved schemas and resolver output.
func WithCache(cache interfaces.CacheProvider, ttl time.Duration) LoaderOption {
	return func(l *Loader) {
		l.cache = cache
		l.ttl = ttl
	}
}

// WithLogger sets the loader logger.
func WithLogger(logger interfaces.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithResolver replaces the default resolver.
func WithResolver(resolver *Resolver) LoaderOption {
	return func(l *Loader) {
		if resolver != nil {
			l.resolver = resolver
		}
	}
}

// WithDocumentRegistry publishes an OpenAPI projection of every pattern the
// first time it is resolved.
func WithDocumentRegistry(registry DocumentRegistry) LoaderOption {
	return func(l *Loader) {
		l.documents = registry
	}
}

// NewLoader builds a loader for the patterns in registry.
func NewLoader(registry *Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		registry:  registry,
		logger:    logging.NoOp(),
		published: map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.resolver == nil {
		l.resolver = NewResolver(registry,
			WithResolverCache(l.cache, l.ttl),
			WithResolverLogger(l.logger),
		)
	}
	return l
}

// Registry returns the pattern registry used by the loader.
func (l *Loader) Registry() *Registry {
	return l.registry
}

// Load returns an empty component for the pattern.
func (l *Loader) Load(ctx context.Context, name string) (*component.Component, error) {
	document, err := l.Schema(ctx, name)
	if err != nil {
		return nil, err
	}
	return component.New(strings.TrimSpace(name), document), nil
}

// Schema returns a private copy of the resolved schema document.
func (l *Loader) Schema(ctx context.Context, name string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	pattern, err := l.registry.Loadable(name)
	if err != nil {
		return nil, err
	}

	key := schemaCachePrefix + name
	if l.cache != nil {
		if cached, err := l.cache.Get(ctx, key); err == nil {
			if document, ok := cached.(map[string]any); ok && document != nil {
				return cloneMap(document), nil
			}
		}
	}

	raw, err := readDocument(pattern.Path)
	if err != nil {
		l.logger.Warn("schema.load.read_failed", "pattern", name, "path", pattern.Path, "error", err)
		return nil, err
	}
	document, err := l.resolver.Resolve(ctx, raw, pattern.Path)
	if err != nil {
		l.logger.Warn("schema.load.resolve_failed", "pattern", name, "error", err)
		return nil, err
	}
	if _, err := Compile(document); err != nil {
		l.logger.Warn("schema.load.invalid", "pattern", name, "error", err)
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, cloneMap(document), l.ttl); err != nil {
			l.logger.Warn("schema.cache.set_failed", "pattern", name, "error", err)
		}
	}
	l.publish(ctx, pattern, document)
	l.logger.Debug("schema.load.resolved", "pattern", name, "status", pattern.Status)
	return cloneMap(document), nil
}

// Validate checks rendered component data against the pattern schema.
func (l *Loader) Validate(ctx context.Context, name string, data any) error {
	document, err := l.Schema(ctx, name)
	if err != nil {
		return err
	}
	return ValidateDocument(name, document, data)
}

// ClearCache drops the cached schema of a single pattern.
func (l *Loader) ClearCache(ctx context.Context, name string) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Delete(ctx, schemaCachePrefix+strings.TrimSpace(name))
}

// ClearAllCache drops every schema and resolver entry. Caches without prefix
// support are cleared entirely.
func (l *Loader) ClearAllCache(ctx context.Context) error {
	l.mu.Lock()
	l.published = map[string]struct{}{}
	l.mu.Unlock()

	if l.cache == nil {
		return nil
	}
	if prefixed, ok := l.cache.(interfaces.PrefixCache); ok {
		return prefixed.DeleteByPrefix(ctx, CachePrefix)
	}
	return l.cache.Clear(ctx)
}

func (l *Loader) publish(ctx context.Context, pattern Pattern, document map[string]any) {
	if l.documents == nil {
		return
	}
	l.mu.Lock()
	if _, done := l.published[pattern.Name]; done {
		l.mu.Unlock()
		return
	}
	l.published[pattern.Name] = struct{}{}
	l.mu.Unlock()

	projection, err := ProjectPattern(pattern, document)
	if err != nil {
		l.logger.Warn("schema.projection.failed", "pattern", pattern.Name, "error", err)
		return
	}
	if err := RegisterProjections(ctx, l.documents, []*Projection{projection}); err != nil {
		l.logger.Warn("schema.projection.register_failed", "pattern", pattern.Name, "error", err)
	}
}

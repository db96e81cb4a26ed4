package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-patternbuilder/internal/identity"
	"github.com/goliatone/go-patternbuilder/internal/logging"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

const (
	// DefaultMaxRefDepth bounds nested $ref resolution.
	DefaultMaxRefDepth = 30

	resolverCachePrefix = "patternbuilder:resolver:"
)

var shortRefPattern = regexp.MustCompile(`^([^/]+)\.json`)

// Resolver inlines $ref pointers of pattern schemas. Relative references
// to "<name>.json" fall back to the registered pattern path when the file
// does not sit next to the referencing schema.
type Resolver struct {
	registry *Registry
	cache    interfaces.CacheProvider
	ttl      time.Duration
	maxDepth int
	logger   interfaces.Logger
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithResolverCache stores top level resolutions in cache.
func WithResolverCache(cache interfaces.CacheProvider, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache
		r.ttl = ttl
	}
}

// WithMaxRefDepth overrides DefaultMaxRefDepth.
func WithMaxRefDepth(depth int) ResolverOption {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithResolverLogger sets the logger used for cache diagnostics.
func WithResolverLogger(logger interfaces.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver builds a resolver backed by registry.
func NewResolver(registry *Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registry: registry,
		maxDepth: DefaultMaxRefDepth,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

type resolution struct {
	ctx       context.Context
	documents map[string]map[string]any
}

// Resolve returns a copy of document with every $ref inlined. sourceURI is
// the path of the file the document was read from.
func (r *Resolver) Resolve(ctx context.Context, document map[string]any, sourceURI string) (map[string]any, error) {
	if document == nil {
		return nil, nil
	}
	key := ""
	if r.cache != nil {
		encoded, err := json.Marshal(document)
		if err == nil {
			key = resolverCachePrefix + identity.ResolverKey(sourceURI, encoded)
			if cached, err := r.cache.Get(ctx, key); err == nil {
				if resolved, ok := cached.(map[string]any); ok && len(resolved) > 0 {
					return cloneMap(resolved), nil
				}
			}
		}
	}

	state := &resolution{ctx: ctx, documents: map[string]map[string]any{}}
	if sourceURI != "" {
		state.documents[sourceURI] = document
	}
	resolved, err := r.resolveNode(state, document, sourceURI, document, 0)
	if err != nil {
		return nil, err
	}
	out, _ := resolved.(map[string]any)

	if key != "" {
		if err := r.cache.Set(ctx, key, cloneMap(out), r.ttl); err != nil {
			r.logger.Warn("schema.resolver.cache_set_failed", "source", sourceURI, "error", err)
		}
	}
	return out, nil
}

func (r *Resolver) resolveNode(state *resolution, node any, base string, root map[string]any, depth int) (any, error) {
	switch typed := node.(type) {
	case map[string]any:
		if ref, ok := typed["$ref"].(string); ok {
			return r.resolveRef(state, typed, ref, base, root, depth)
		}
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			resolved, err := r.resolveNode(state, value, base, root, depth)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			resolved, err := r.resolveNode(state, value, base, root, depth)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return node, nil
	}
}

func (r *Resolver) resolveRef(state *resolution, node map[string]any, ref, base string, root map[string]any, depth int) (any, error) {
	if depth+1 > r.maxDepth {
		return nil, fmt.Errorf("%w: %s", ErrRefDepthExceeded, ref)
	}
	if err := state.ctx.Err(); err != nil {
		return nil, err
	}

	filePart, fragment, _ := strings.Cut(ref, "#")
	targetBase := base
	targetRoot := root
	if filePart != "" {
		path := r.refPath(filePart, base)
		document, err := state.load(path)
		if err != nil {
			return nil, err
		}
		targetBase = path
		targetRoot = document
	}

	target, err := resolvePointer(targetRoot, fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, ref)
	}

	resolved, err := r.resolveNode(state, target, targetBase, targetRoot, depth+1)
	if err != nil {
		return nil, err
	}

	siblings := len(node) - 1
	if siblings == 0 {
		return cloneValue(resolved), nil
	}
	merged, ok := cloneValue(resolved).(map[string]any)
	if !ok {
		return cloneValue(resolved), nil
	}
	for key, value := range node {
		if key == "$ref" {
			continue
		}
		sibling, err := r.resolveNode(state, value, base, root, depth)
		if err != nil {
			return nil, err
		}
		merged[key] = sibling
	}
	return merged, nil
}

func (r *Resolver) refPath(ref, base string) string {
	ref = strings.TrimPrefix(ref, "file://")
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	dir := "."
	if base != "" {
		dir = filepath.Dir(base)
	}
	local := filepath.Join(dir, ref)
	if r.registry == nil {
		return local
	}
	match := shortRefPattern.FindStringSubmatch(ref)
	if match == nil {
		return local
	}
	pattern, ok := r.registry.Pattern(match[1])
	if !ok || pattern.Path == "" {
		return local
	}
	if _, err := os.Stat(filepath.Join(dir, match[1]+".json")); err == nil {
		return local
	}
	return pattern.Path + ref[len(match[0]):]
}

func (s *resolution) load(path string) (map[string]any, error) {
	if document, ok := s.documents[path]; ok {
		return document, nil
	}
	document, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	s.documents[path] = document
	return document, nil
}

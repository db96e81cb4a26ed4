package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// Pattern is a registered schema file addressed by short name.
type Pattern struct {
	Name   string `json:"name"`
	Label  string `json:"label,omitempty"`
	Path   string `json:"path"`
	Status string `json:"status"`
	Type   string `json:"type,omitempty"`
}

// Registry maps pattern short names to schema files and tracks the bundle
// bindings used to resolve schemas for items.
type Registry struct {
	mu       sync.RWMutex
	patterns map[string]Pattern
	statuses map[string]Status
	types    []PatternType
	bundles  map[string]string
	wrapped  map[string]string
	tuples   map[string]struct{}
}

var _ interfaces.PatternRegistry = (*Registry)(nil)

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithStatuses registers extra statuses, replacing built-ins with the same name.
func WithStatuses(statuses ...Status) RegistryOption {
	return func(r *Registry) {
		for _, status := range statuses {
			r.statuses[normalizeStatus(status.Name)] = status
		}
	}
}

// WithPatternTypes registers pattern types used to classify discovered files.
func WithPatternTypes(types ...PatternType) RegistryOption {
	return func(r *Registry) {
		r.types = append(r.types, types...)
	}
}

// NewRegistry returns an empty registry with the default statuses.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		patterns: map[string]Pattern{},
		statuses: map[string]Status{},
		bundles:  map[string]string{},
		wrapped:  map[string]string{},
		tuples:   map[string]struct{}{},
	}
	for _, status := range DefaultStatuses() {
		r.statuses[status.Name] = status
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	sortTypes(r.types)
	return r
}

// Register adds a pattern. An existing pattern with the same name is replaced.
func (r *Registry) Register(pattern Pattern) error {
	name := strings.TrimSpace(pattern.Name)
	if name == "" {
		return ErrPatternNameRequired
	}
	pattern.Name = name
	pattern.Status = normalizeStatus(pattern.Status)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.statuses[pattern.Status]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStatus, pattern.Status)
	}
	if pattern.Type == "" {
		pattern.Type = r.classifyLocked(name, nil)
	}
	r.patterns[name] = pattern
	return nil
}

// SetStatus changes the status of a registered pattern.
func (r *Registry) SetStatus(name, status string) error {
	status = normalizeStatus(status)
	r.mu.Lock()
	defer r.mu.Unlock()
	pattern, ok := r.patterns[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	if _, ok := r.statuses[status]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStatus, status)
	}
	pattern.Status = status
	r.patterns[name] = pattern
	return nil
}

// Discover registers every schema file below dir whose base name matches
// glob (default "*.json"). Patterns registered earlier keep their path so
// the first configured directory wins. It returns the number of new patterns.
func (r *Registry) Discover(ctx context.Context, dir, glob string) (int, error) {
	if strings.TrimSpace(glob) == "" {
		glob = "*.json"
	}
	if _, err := filepath.Match(glob, "probe.json"); err != nil {
		return 0, fmt.Errorf("schema: invalid discovery pattern %q: %w", glob, err)
	}

	added := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(glob, d.Name()); !ok {
			return nil
		}
		name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if _, exists := r.Pattern(name); exists {
			return nil
		}
		document, err := readDocument(path)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		r.mu.Lock()
		r.patterns[name] = Pattern{
			Name:   name,
			Label:  documentTitle(document, name),
			Path:   abs,
			Status: StatusActive,
			Type:   r.classifyLocked(name, document),
		}
		r.mu.Unlock()
		added++
		return nil
	})
	return added, err
}

// Pattern returns a registered pattern.
func (r *Registry) Pattern(name string) (Pattern, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pattern, ok := r.patterns[strings.TrimSpace(name)]
	return pattern, ok
}

// Patterns returns all registered patterns ordered by name.
func (r *Registry) Patterns() []Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Pattern, 0, len(r.patterns))
	for _, pattern := range r.patterns {
		out = append(out, pattern)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Status returns a registered status.
func (r *Registry) Status(name string) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.statuses[normalizeStatus(name)]
	return status, ok
}

// Loadable reports why a pattern cannot be loaded, or nil when it can.
func (r *Registry) Loadable(name string) (Pattern, error) {
	pattern, ok := r.Pattern(name)
	if !ok {
		return Pattern{}, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	status, ok := r.Status(pattern.Status)
	if !ok || !status.Import {
		return pattern, fmt.Errorf("%w: %s (%s)", ErrSchemaInactive, name, pattern.Status)
	}
	return pattern, nil
}

// BindBundle maps a schema-native bundle to a pattern.
func (r *Registry) BindBundle(bundle, pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles[strings.TrimSpace(bundle)] = strings.TrimSpace(pattern)
}

// BundleSchema returns the pattern bound to bundle.
func (r *Registry) BundleSchema(bundle string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.bundles[strings.TrimSpace(bundle)]
	return name, ok && name != ""
}

// WrapField records that items of (entityType, bundle) wrap a single pattern
// item stored in field.
func (r *Registry) WrapField(entityType, bundle, field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wrapped[bundleKey(entityType, bundle)] = strings.TrimSpace(field)
}

// WrappedSchemaField returns the wrapper field configured for the item.
func (r *Registry) WrappedSchemaField(entityType string, item *entity.Item) (string, bool) {
	if item == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	field, ok := r.wrapped[bundleKey(entityType, item.Bundle)]
	return field, ok && field != ""
}

// MarkTuple flags items of (entityType, bundle) as tuples.
func (r *Registry) MarkTuple(entityType, bundle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tuples[bundleKey(entityType, bundle)] = struct{}{}
}

// IsTuple reports whether the item was flagged with MarkTuple.
func (r *Registry) IsTuple(entityType string, item *entity.Item) bool {
	if item == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tuples[bundleKey(entityType, item.Bundle)]
	return ok
}

func (r *Registry) classifyLocked(name string, document map[string]any) string {
	for _, candidate := range r.types {
		if candidate.claims(name, document) {
			return candidate.Name
		}
	}
	return DefaultPatternType
}

func bundleKey(entityType, bundle string) string {
	return strings.TrimSpace(entityType) + ":" + strings.TrimSpace(bundle)
}

func readDocument(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var document map[string]any
	if err := json.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, path, err)
	}
	return document, nil
}

func documentTitle(document map[string]any, fallback string) string {
	if title, ok := document["title"].(string); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return fallback
}

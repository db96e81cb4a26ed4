package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-patternbuilder/entity"
)

// ErrItemNotFound is returned when the store has no item for a lookup.
var ErrItemNotFound = errors.New("builder: item not found")

// Validator checks a rendered tree against the pattern it was built from.
type Validator interface {
	Validate(ctx context.Context, name string, data any) error
}

// Result is the outcome of rendering one item.
type Result struct {
	Schema string
	Tree   map[string]any
	Markup string
	View   entity.ViewContext
}

// Built reports whether a schema was resolved for the item.
func (r Result) Built() bool {
	return r.Tree != nil
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTreeRenderer renders markup for every built tree.
func WithTreeRenderer(renderer TreeRenderer) ServiceOption {
	return func(s *Service) {
		s.renderer = renderer
	}
}

// WithValidator validates every built tree against its pattern schema.
func WithValidator(validator Validator) ServiceOption {
	return func(s *Service) {
		s.validator = validator
	}
}

// Service loads items and renders them with a fresh builder per call.
type Service struct {
	deps      Dependencies
	renderer  TreeRenderer
	validator Validator
}

// NewService returns a service over deps.
func NewService(deps Dependencies, opts ...ServiceOption) *Service {
	s := &Service{deps: deps.withDefaults()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dependencies returns the collaborators builders are created with.
func (s *Service) Dependencies() Dependencies {
	return s.deps
}

// Load fetches an item by revision when revisionID is set, else by id.
func (s *Service) Load(ctx context.Context, entityType, id, revisionID string) (*entity.Item, error) {
	entityType = strings.TrimSpace(entityType)
	var (
		item *entity.Item
		err  error
	)
	if rev := strings.TrimSpace(revisionID); rev != "" {
		item, err = s.deps.Store.LoadRevision(ctx, entityType, rev)
	} else {
		item, err = s.deps.Store.Load(ctx, entityType, strings.TrimSpace(id))
	}
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s %s%s", ErrItemNotFound, entityType, id, revisionSuffix(revisionID))
	}
	return item, nil
}

// Render builds item for view. An item without a resolvable schema yields an
// empty Result and no error.
func (s *Service) Render(ctx context.Context, entityType string, item *entity.Item, view entity.ViewContext) (Result, error) {
	b := New(ctx, s.deps, entityType, item)
	if !b.CanBuild() {
		return Result{View: view}, nil
	}
	tree := b.Render(ctx, view)
	result := Result{Schema: b.Component().Name(), Tree: tree, View: view}
	if built, ok := b.BuiltView(); ok {
		result.View = built
	}
	if tree == nil {
		return result, nil
	}
	if s.validator != nil {
		if err := s.validator.Validate(ctx, result.Schema, tree); err != nil {
			return result, err
		}
	}
	if s.renderer != nil {
		markup, err := s.renderer.RenderTree(ctx, tree)
		if err != nil {
			return result, err
		}
		result.Markup = markup
	}
	return result, nil
}

// RenderByID loads and renders an item in one call.
func (s *Service) RenderByID(ctx context.Context, entityType, id, revisionID string, view entity.ViewContext) (Result, error) {
	item, err := s.Load(ctx, entityType, id, revisionID)
	if err != nil {
		return Result{View: view}, err
	}
	return s.Render(ctx, entityType, item, view)
}

func revisionSuffix(revisionID string) string {
	if strings.TrimSpace(revisionID) == "" {
		return ""
	}
	return "@" + strings.TrimSpace(revisionID)
}

package schema

import (
	"context"
	"fmt"
	"strings"

	crud "github.com/goliatone/go-crud"
	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-patternbuilder/internal/openapi"
)

// Projection contains an OpenAPI document projection of a pattern.
type Projection struct {
	Name     string
	Document *openapi.PatternDocument
}

// DocumentRegistry is a destination for projected pattern documents.
type DocumentRegistry interface {
	Register(ctx context.Context, name string, doc map[string]any) error
}

// ProjectPattern builds an OpenAPI document exposing the resolved pattern
// schema as a component.
func ProjectPattern(pattern Pattern, document map[string]any) (*Projection, error) {
	name := strings.TrimSpace(pattern.Name)
	if name == "" {
		return nil, ErrPatternNameRequired
	}
	title := strings.TrimSpace(pattern.Label)
	if title == "" {
		title = name
	}
	version := "1.0.0"
	if v, ok := document["version"].(string); ok && strings.TrimSpace(v) != "" {
		version = strings.TrimPrefix(strings.TrimSpace(v), "v")
	}
	doc := openapi.NewPatternDocument(title, version, openapi.PatternMeta{
		Name:   name,
		Status: pattern.Status,
		Type:   pattern.Type,
	}).WithSchema(componentName(name), cloneMap(document))
	return &Projection{Name: name, Document: doc}, nil
}

// RegisterProjections registers projections in the provided registry.
func RegisterProjections(ctx context.Context, registry DocumentRegistry, projections []*Projection) error {
	if registry == nil || len(projections) == 0 {
		return nil
	}
	for _, projection := range projections {
		if projection == nil || projection.Document == nil {
			continue
		}
		if err := registry.Register(ctx, projection.Name, projection.Document.Map()); err != nil {
			return err
		}
	}
	return nil
}

// CRUDRegistry publishes pattern documents into the go-crud schema registry
// under "<prefix><pattern>".
type CRUDRegistry struct {
	Prefix string
}

func (r CRUDRegistry) Register(_ context.Context, name string, doc map[string]any) error {
	resource := r.Prefix + componentName(name)
	if ok := crud.RegisterSchemaDocument(resource, resource+"s", doc); !ok {
		return fmt.Errorf("schema: crud registry rejected document %s", resource)
	}
	return nil
}

func componentName(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		normalized = value
	}
	return strings.ReplaceAll(normalized, "-", "_")
}

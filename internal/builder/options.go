package builder

import (
	"context"

	"github.com/goliatone/go-patternbuilder/internal/component"
	"github.com/goliatone/go-patternbuilder/internal/display"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

const (
	// DefaultSchemaEntityType is the item type carrying pattern data.
	DefaultSchemaEntityType = "paragraphs_item"
	// EntitySchemaName names the wrapper for items rendered without a schema.
	EntitySchemaName = "pb_entity"
	// RawSchemaName names the wrapper for rendered field markup.
	RawSchemaName = "pb_raw"
	// MetaProperty receives the per item metadata.
	MetaProperty = "meta"
)

// SchemaLoader returns a fresh component for a pattern name.
type SchemaLoader interface {
	Load(ctx context.Context, name string) (*component.Component, error)
}

// Options tune schema resolution and recursion.
type Options struct {
	SchemaEntityType     string
	ReferenceEntityTypes []string
	SchemaPropertyNames  []string
	EntitySchemaName     string
	RawSchemaName        string
	DefaultViewMode      string
	FieldViewMode        string
	MetaProperty         string
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		SchemaEntityType:     DefaultSchemaEntityType,
		ReferenceEntityTypes: []string{"field_collection_item", DefaultSchemaEntityType},
		SchemaPropertyNames:  []string{"name"},
		EntitySchemaName:     EntitySchemaName,
		RawSchemaName:        RawSchemaName,
		DefaultViewMode:      "full",
		FieldViewMode:        "default",
		MetaProperty:         MetaProperty,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.SchemaEntityType == "" {
		o.SchemaEntityType = defaults.SchemaEntityType
	}
	if o.ReferenceEntityTypes == nil {
		o.ReferenceEntityTypes = defaults.ReferenceEntityTypes
	}
	if o.SchemaPropertyNames == nil {
		o.SchemaPropertyNames = defaults.SchemaPropertyNames
	}
	if o.EntitySchemaName == "" {
		o.EntitySchemaName = defaults.EntitySchemaName
	}
	if o.RawSchemaName == "" {
		o.RawSchemaName = defaults.RawSchemaName
	}
	if o.DefaultViewMode == "" {
		o.DefaultViewMode = defaults.DefaultViewMode
	}
	if o.FieldViewMode == "" {
		o.FieldViewMode = defaults.FieldViewMode
	}
	if o.MetaProperty == "" {
		o.MetaProperty = defaults.MetaProperty
	}
	return o
}

func (o Options) isReferenceType(entityType string) bool {
	for _, candidate := range o.ReferenceEntityTypes {
		if candidate == entityType {
			return true
		}
	}
	return false
}

// Dependencies are the collaborators of a builder.
type Dependencies struct {
	Store    interfaces.EntityStore
	Catalog  interfaces.FieldCatalog
	Access   interfaces.AccessChecker
	Viewer   interfaces.FieldViewer
	Patterns interfaces.PatternRegistry
	Schemas  SchemaLoader
	// Displays creates field display handlers. A registry over Catalog and
	// Viewer is used when nil.
	Displays *display.Registry
	Logger   interfaces.Logger
	Options  Options
}

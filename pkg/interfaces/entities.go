package interfaces

import (
	"context"

	"github.com/goliatone/go-patternbuilder/entity"
)

// EntityStore loads items referenced from fields.
type EntityStore interface {
	// EntityInfo returns the type description, reporting false for unknown types.
	EntityInfo(entityType string) (entity.EntityInfo, bool)
	Load(ctx context.Context, entityType, id string) (*entity.Item, error)
	LoadRevision(ctx context.Context, entityType, revisionID string) (*entity.Item, error)
}

// FieldCatalog exposes field storage and per-bundle instance configuration.
type FieldCatalog interface {
	FieldInfo(fieldName string) (entity.FieldInfo, bool)
	// FieldInstances returns the instances attached to a bundle ordered by weight.
	FieldInstances(entityType, bundle string) []entity.FieldInstance
	FieldInstance(entityType, bundle, fieldName string) (entity.FieldInstance, bool)
}

// AccessChecker answers view access questions for items and fields.
type AccessChecker interface {
	CanView(ctx context.Context, entityType string, item *entity.Item) bool
	CanViewField(ctx context.Context, entityType string, item *entity.Item, fieldName string) bool
}

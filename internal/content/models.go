package content

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/identity"
)

// ItemRecord is the current revision of an item.
type ItemRecord struct {
	bun.BaseModel `bun:"table:pattern_items,alias:pi"`

	ID         uuid.UUID                     `bun:",pk,type:uuid" json:"id"`
	EntityType string                        `bun:"entity_type,notnull" json:"entity_type"`
	EntityID   string                        `bun:"entity_id,notnull" json:"entity_id"`
	RevisionID string                        `bun:"revision_id" json:"revision_id,omitempty"`
	Bundle     string                        `bun:"bundle,notnull" json:"bundle"`
	Label      string                        `bun:"label" json:"label,omitempty"`
	Fields     map[string][]entity.FieldItem `bun:"fields,type:jsonb" json:"fields,omitempty"`
	UpdatedAt  time.Time                     `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// RevisionRecord is an immutable stored revision.
type RevisionRecord struct {
	bun.BaseModel `bun:"table:pattern_item_revisions,alias:pir"`

	ID         uuid.UUID                     `bun:",pk,type:uuid" json:"id"`
	EntityType string                        `bun:"entity_type,notnull" json:"entity_type"`
	EntityID   string                        `bun:"entity_id,notnull" json:"entity_id"`
	RevisionID string                        `bun:"revision_id,notnull" json:"revision_id"`
	Bundle     string                        `bun:"bundle,notnull" json:"bundle"`
	Label      string                        `bun:"label" json:"label,omitempty"`
	Fields     map[string][]entity.FieldItem `bun:"fields,type:jsonb" json:"fields,omitempty"`
	CreatedAt  time.Time                     `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func newItemRecord(item *entity.Item, now time.Time) *ItemRecord {
	return &ItemRecord{
		ID:         identity.ItemUUID(item.Type, item.ID),
		EntityType: item.Type,
		EntityID:   item.ID,
		RevisionID: item.RevisionID,
		Bundle:     item.Bundle,
		Label:      item.Label,
		Fields:     item.Clone().Fields,
		UpdatedAt:  now,
	}
}

func newRevisionRecord(item *entity.Item, now time.Time) *RevisionRecord {
	return &RevisionRecord{
		ID:         identity.RevisionUUID(item.Type, item.RevisionID),
		EntityType: item.Type,
		EntityID:   item.ID,
		RevisionID: item.RevisionID,
		Bundle:     item.Bundle,
		Label:      item.Label,
		Fields:     item.Clone().Fields,
		CreatedAt:  now,
	}
}

func (r *ItemRecord) item() *entity.Item {
	if r == nil {
		return nil
	}
	return &entity.Item{
		Type:       r.EntityType,
		ID:         r.EntityID,
		RevisionID: r.RevisionID,
		Bundle:     r.Bundle,
		Label:      r.Label,
		Fields:     r.Fields,
	}
}

func (r *RevisionRecord) item() *entity.Item {
	if r == nil {
		return nil
	}
	return &entity.Item{
		Type:       r.EntityType,
		ID:         r.EntityID,
		RevisionID: r.RevisionID,
		Bundle:     r.Bundle,
		Label:      r.Label,
		Fields:     r.Fields,
	}
}

func sortItems(items []*entity.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type < items[j].Type
		}
		return items[i].ID < items[j].ID
	})
}

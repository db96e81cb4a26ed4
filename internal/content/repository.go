package content

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewItemRepository creates the repository for current item revisions.
func NewItemRepository(db *bun.DB) repository.Repository[*ItemRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ItemRecord]{
		NewRecord: func() *ItemRecord { return &ItemRecord{} },
		GetID: func(r *ItemRecord) uuid.UUID {
			return r.ID
		},
		SetID: func(r *ItemRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(r *ItemRecord) string {
			if r == nil {
				return ""
			}
			return r.ID.String()
		},
	})
}

// NewRevisionRepository creates the repository for stored revisions.
func NewRevisionRepository(db *bun.DB) repository.Repository[*RevisionRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*RevisionRecord]{
		NewRecord: func() *RevisionRecord { return &RevisionRecord{} },
		GetID: func(r *RevisionRecord) uuid.UUID {
			return r.ID
		},
		SetID: func(r *RevisionRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(r *RevisionRecord) string {
			if r == nil {
				return ""
			}
			return r.ID.String()
		},
	})
}

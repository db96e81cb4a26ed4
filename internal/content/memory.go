package content

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// MemoryStore keeps items and their revisions in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	types     map[string]entity.EntityInfo
	items     map[string]map[string]*entity.Item
	revisions map[string]map[string]*entity.Item
}

var _ interfaces.EntityStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store knowing the supplied types.
func NewMemoryStore(types ...entity.EntityInfo) *MemoryStore {
	store := &MemoryStore{
		types:     make(map[string]entity.EntityInfo),
		items:     make(map[string]map[string]*entity.Item),
		revisions: make(map[string]map[string]*entity.Item),
	}
	for _, info := range types {
		store.RegisterType(info)
	}
	return store
}

// RegisterType adds or replaces an item type description.
func (m *MemoryStore) RegisterType(info entity.EntityInfo) {
	info = normalizeEntityInfo(info)
	if info.Type == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[info.Type] = info
}

// EntityInfo returns the registered type description.
func (m *MemoryStore) EntityInfo(entityType string) (entity.EntityInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.types[entityType]
	return info, ok
}

// Save stores item as the current revision. Items of unregistered types are
// rejected.
func (m *MemoryStore) Save(_ context.Context, item *entity.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	copied := item.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.types[copied.Type]; !ok {
		return &unknownTypeError{entityType: copied.Type}
	}
	if m.items[copied.Type] == nil {
		m.items[copied.Type] = make(map[string]*entity.Item)
	}
	m.items[copied.Type][copied.ID] = copied
	if copied.RevisionID != "" {
		if m.revisions[copied.Type] == nil {
			m.revisions[copied.Type] = make(map[string]*entity.Item)
		}
		m.revisions[copied.Type][copied.RevisionID] = copied
	}
	return nil
}

// Load returns the current revision of an item.
func (m *MemoryStore) Load(_ context.Context, entityType, id string) (*entity.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[entityType][id]
	if !ok {
		return nil, &NotFoundError{Resource: entityType, Key: id}
	}
	return item.Clone(), nil
}

// LoadRevision returns a stored revision.
func (m *MemoryStore) LoadRevision(_ context.Context, entityType, revisionID string) (*entity.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.revisions[entityType][revisionID]
	if !ok {
		return nil, &NotFoundError{Resource: entityType + "_revision", Key: revisionID}
	}
	return item.Clone(), nil
}

// List returns the current revision of every item of a type.
func (m *MemoryStore) List(_ context.Context, entityType string) ([]*entity.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*entity.Item, 0, len(m.items[entityType]))
	for _, item := range m.items[entityType] {
		out = append(out, item.Clone())
	}
	sortItems(out)
	return out, nil
}

func validateItem(item *entity.Item) error {
	if item == nil || strings.TrimSpace(item.Type) == "" {
		return ErrEntityTypeRequired
	}
	if strings.TrimSpace(item.ID) == "" {
		return ErrEntityIDRequired
	}
	return nil
}

func normalizeEntityInfo(info entity.EntityInfo) entity.EntityInfo {
	info.Type = strings.TrimSpace(info.Type)
	if info.Keys.ID == "" {
		info.Keys.ID = "target_id"
	}
	if info.Keys.Revision == "" {
		info.Keys.Revision = "revision_id"
	}
	if info.Keys.Bundle == "" {
		info.Keys.Bundle = "bundle"
	}
	return info
}

type unknownTypeError struct {
	entityType string
}

func (e *unknownTypeError) Error() string {
	return ErrUnknownEntityType.Error() + ": " + e.entityType
}

func (e *unknownTypeError) Unwrap() error {
	return ErrUnknownEntityType
}

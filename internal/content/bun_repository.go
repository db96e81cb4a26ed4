package content

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/internal/identity"
	"github.com/goliatone/go-patternbuilder/internal/logging"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

const (
	itemNamespace     = "pattern_item"
	revisionNamespace = "pattern_item_revision"
)

// BunStore persists items and revisions with bun, optionally behind the
// repository cache.
type BunStore struct {
	db           *bun.DB
	items        repository.Repository[*ItemRecord]
	revisions    repository.Repository[*RevisionRecord]
	cacheService cache.CacheService
	prefixes     []string
	now          func() time.Time
	logger       interfaces.Logger

	mu    sync.RWMutex
	types map[string]entity.EntityInfo
}

var _ interfaces.EntityStore = (*BunStore)(nil)

// BunStoreOption configures a BunStore.
type BunStoreOption func(*BunStore)

// WithStoreLogger sets the store logger.
func WithStoreLogger(logger interfaces.Logger) BunStoreOption {
	return func(s *BunStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreClock overrides the clock stamping records.
func WithStoreClock(now func() time.Time) BunStoreOption {
	return func(s *BunStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEntityTypes registers item types up front.
func WithEntityTypes(types ...entity.EntityInfo) BunStoreOption {
	return func(s *BunStore) {
		for _, info := range types {
			s.RegisterType(info)
		}
	}
}

// NewBunStore creates a store without caching.
func NewBunStore(db *bun.DB, opts ...BunStoreOption) *BunStore {
	return NewBunStoreWithCache(db, nil, nil, opts...)
}

// NewBunStoreWithCache creates a store whose repositories are wrapped by the
// repository cache when both the service and serializer are set.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer, opts ...BunStoreOption) *BunStore {
	store := &BunStore{
		db:        db,
		items:     wrapWithCache(NewItemRepository(db), cacheService, serializer),
		revisions: wrapWithCache(NewRevisionRepository(db), cacheService, serializer),
		now:       time.Now,
		logger:    logging.NoOp(),
		types:     make(map[string]entity.EntityInfo),
	}
	if cacheService != nil && serializer != nil {
		store.cacheService = cacheService
		store.prefixes = []string{cachePrefix(itemNamespace), cachePrefix(revisionNamespace)}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// CreateSchema creates the item tables when missing.
func (s *BunStore) CreateSchema(ctx context.Context) error {
	models := []any{(*ItemRecord)(nil), (*RevisionRecord)(nil)}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("content: create table %T: %w", model, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, "CREATE UNIQUE INDEX IF NOT EXISTS idx_pattern_items_type_entity ON pattern_items(entity_type, entity_id)"); err != nil {
		return fmt.Errorf("content: create index idx_pattern_items_type_entity: %w", err)
	}
	return nil
}

// RegisterType adds or replaces an item type description.
func (s *BunStore) RegisterType(info entity.EntityInfo) {
	info = normalizeEntityInfo(info)
	if info.Type == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[info.Type] = info
}

func (s *BunStore) EntityInfo(entityType string) (entity.EntityInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.types[entityType]
	return info, ok
}

// Save upserts the current item and records its revision.
func (s *BunStore) Save(ctx context.Context, item *entity.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if _, ok := s.EntityInfo(item.Type); !ok {
		return &unknownTypeError{entityType: item.Type}
	}
	now := s.now()

	record := newItemRecord(item, now)
	exists, err := s.db.NewSelect().Model((*ItemRecord)(nil)).Where("id = ?", record.ID).Exists(ctx)
	if err != nil {
		return mapRepositoryError(err, item.Type, item.ID)
	}
	if exists {
		_, err = s.items.Update(ctx, record)
	} else {
		_, err = s.items.Create(ctx, record)
	}
	if err != nil {
		return mapRepositoryError(err, item.Type, item.ID)
	}

	if strings.TrimSpace(item.RevisionID) != "" {
		revision := newRevisionRecord(item, now)
		exists, err := s.db.NewSelect().Model((*RevisionRecord)(nil)).Where("id = ?", revision.ID).Exists(ctx)
		if err != nil {
			return mapRepositoryError(err, item.Type+"_revision", item.RevisionID)
		}
		if !exists {
			if _, err := s.revisions.Create(ctx, revision); err != nil {
				return mapRepositoryError(err, item.Type+"_revision", item.RevisionID)
			}
		}
	}

	if err := s.InvalidateCache(ctx); err != nil {
		s.logger.Warn("store.cache.invalidate_failed", "entity_type", item.Type, "entity_id", item.ID, "error", err)
	}
	s.logger.Debug("store.item.saved", "entity_type", item.Type, "entity_id", item.ID, "revision_id", item.RevisionID)
	return nil
}

func (s *BunStore) Load(ctx context.Context, entityType, id string) (*entity.Item, error) {
	record, err := s.items.GetByID(ctx, identity.ItemUUID(entityType, id).String())
	if err != nil {
		return nil, mapRepositoryError(err, entityType, id)
	}
	return record.item(), nil
}

func (s *BunStore) LoadRevision(ctx context.Context, entityType, revisionID string) (*entity.Item, error) {
	record, err := s.revisions.GetByID(ctx, identity.RevisionUUID(entityType, revisionID).String())
	if err != nil {
		return nil, mapRepositoryError(err, entityType+"_revision", revisionID)
	}
	return record.item(), nil
}

// List returns the current revision of every item of a type.
func (s *BunStore) List(ctx context.Context, entityType string) ([]*entity.Item, error) {
	records, _, err := s.items.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.entity_type = ?", entityType).Order("entity_id ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, entityType, "")
	}
	out := make([]*entity.Item, 0, len(records))
	for _, record := range records {
		out = append(out, record.item())
	}
	sortItems(out)
	return out, nil
}

// InvalidateCache drops cached item lookups.
func (s *BunStore) InvalidateCache(ctx context.Context) error {
	if s.cacheService == nil {
		return nil
	}
	for _, prefix := range s.prefixes {
		if err := s.cacheService.DeleteByPrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}

func cachePrefix(namespace string) string {
	if namespace == "" {
		return ""
	}
	return namespace + cache.KeySeparator
}

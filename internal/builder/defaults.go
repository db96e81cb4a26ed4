package builder

import (
	"context"

	"github.com/goliatone/go-patternbuilder/entity"
)

type noStore struct{}

func (noStore) EntityInfo(string) (entity.EntityInfo, bool) { return entity.EntityInfo{}, false }

func (noStore) Load(context.Context, string, string) (*entity.Item, error) { return nil, nil }

func (noStore) LoadRevision(context.Context, string, string) (*entity.Item, error) {
	return nil, nil
}

type noCatalog struct{}

func (noCatalog) FieldInfo(string) (entity.FieldInfo, bool) { return entity.FieldInfo{}, false }

func (noCatalog) FieldInstances(string, string) []entity.FieldInstance { return nil }

func (noCatalog) FieldInstance(string, string, string) (entity.FieldInstance, bool) {
	return entity.FieldInstance{}, false
}

type allowAll struct{}

func (allowAll) CanView(_ context.Context, _ string, item *entity.Item) bool { return item != nil }

func (allowAll) CanViewField(context.Context, string, *entity.Item, string) bool { return true }

type noPatterns struct{}

func (noPatterns) BundleSchema(string) (string, bool) { return "", false }

func (noPatterns) WrappedSchemaField(string, *entity.Item) (string, bool) { return "", false }

func (noPatterns) IsTuple(string, *entity.Item) bool { return false }

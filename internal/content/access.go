package content

import (
	"context"
	"sync"

	"github.com/goliatone/go-patternbuilder/entity"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// RuleAccess allows everything except explicitly denied items and fields.
type RuleAccess struct {
	mu     sync.RWMutex
	items  map[string]map[string]struct{}
	types  map[string]struct{}
	fields map[string]struct{}
}

var _ interfaces.AccessChecker = (*RuleAccess)(nil)

// NewRuleAccess returns an allow-all checker.
func NewRuleAccess() *RuleAccess {
	return &RuleAccess{
		items:  make(map[string]map[string]struct{}),
		types:  make(map[string]struct{}),
		fields: make(map[string]struct{}),
	}
}

// DenyItem hides a single item.
func (a *RuleAccess) DenyItem(entityType, id string) *RuleAccess {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.items[entityType] == nil {
		a.items[entityType] = make(map[string]struct{})
	}
	a.items[entityType][id] = struct{}{}
	return a
}

// DenyType hides every item of a type.
func (a *RuleAccess) DenyType(entityType string) *RuleAccess {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.types[entityType] = struct{}{}
	return a
}

// DenyField hides a field on every item.
func (a *RuleAccess) DenyField(fieldName string) *RuleAccess {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fields[fieldName] = struct{}{}
	return a
}

func (a *RuleAccess) CanView(_ context.Context, entityType string, item *entity.Item) bool {
	if item == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, denied := a.types[entityType]; denied {
		return false
	}
	_, denied := a.items[entityType][item.ID]
	return !denied
}

func (a *RuleAccess) CanViewField(ctx context.Context, entityType string, item *entity.Item, fieldName string) bool {
	if !a.CanView(ctx, entityType, item) {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, denied := a.fields[fieldName]
	return !denied
}

package display

import (
	"strings"

	"github.com/goliatone/go-patternbuilder/entity"
)

const anyPart = "-any"

// PreparedSet records which field displays already ran their prepare hook
// for an item during a single build pass. It is owned by the pass and must
// not be shared across goroutines.
type PreparedSet struct {
	items map[*entity.Item]map[string]struct{}
}

// NewPreparedSet returns an empty set.
func NewPreparedSet() *PreparedSet {
	return &PreparedSet{items: map[*entity.Item]map[string]struct{}{}}
}

// PreparedKey returns the "field::module::type" key for a display.
func PreparedKey(fieldName string, display entity.Display) string {
	module := strings.TrimSpace(display.Module)
	if module == "" {
		module = anyPart
	}
	kind := strings.TrimSpace(display.Type)
	if kind == "" {
		kind = anyPart
	}
	return fieldName + "::" + module + "::" + kind
}

// Mark records key for item and reports whether it was newly added.
func (s *PreparedSet) Mark(item *entity.Item, key string) bool {
	if s == nil || item == nil {
		return true
	}
	if s.items == nil {
		s.items = map[*entity.Item]map[string]struct{}{}
	}
	keys, ok := s.items[item]
	if !ok {
		keys = map[string]struct{}{}
		s.items[item] = keys
	}
	if _, seen := keys[key]; seen {
		return false
	}
	keys[key] = struct{}{}
	return true
}

// Has reports whether key was marked for item.
func (s *PreparedSet) Has(item *entity.Item, key string) bool {
	if s == nil || item == nil {
		return false
	}
	_, ok := s.items[item][key]
	return ok
}

// Len returns the number of keys marked for item.
func (s *PreparedSet) Len(item *entity.Item) int {
	if s == nil || item == nil {
		return 0
	}
	return len(s.items[item])
}

// Clear forgets every key recorded for item.
func (s *PreparedSet) Clear(item *entity.Item) {
	if s == nil || item == nil {
		return
	}
	delete(s.items, item)
}

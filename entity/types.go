package entity

import (
	"fmt"
	"sort"
	"strings"
)

// FieldItem holds the raw column values stored for a single field delta
// (value, safe_value, format, url, uri, title, target_id, revision_id ...).
// Reference fields may carry an already loaded item under the "entity" key.
type FieldItem map[string]any

// Item is a content record owned by the host storage layer. Items are treated
// as read-only while a component tree is assembled.
type Item struct {
	Type       string                 `json:"type" yaml:"type"`
	ID         string                 `json:"id" yaml:"id"`
	RevisionID string                 `json:"revision_id,omitempty" yaml:"revision_id"`
	Bundle     string                 `json:"bundle" yaml:"bundle"`
	Label      string                 `json:"label,omitempty" yaml:"label"`
	Fields     map[string][]FieldItem `json:"fields,omitempty" yaml:"fields"`
}

// Identity identifies an item revision within a single render pass.
type Identity struct {
	Type       string
	ID         string
	RevisionID string
}

// Items returns the stored deltas for a field.
func (i *Item) Items(field string) []FieldItem {
	if i == nil || i.Fields == nil {
		return nil
	}
	return i.Fields[field]
}

// Identity returns the (type, id, revision) triple of the item.
func (i *Item) Identity() Identity {
	if i == nil {
		return Identity{}
	}
	return Identity{Type: i.Type, ID: i.ID, RevisionID: i.RevisionID}
}

// Same reports whether both identities point at the same stored revision.
// Items without an id never match.
func (id Identity) Same(other Identity) bool {
	if id.ID == "" || other.ID == "" {
		return false
	}
	return id.Type == other.Type && id.ID == other.ID && id.RevisionID == other.RevisionID
}

func (id Identity) String() string {
	if id.RevisionID == "" {
		return id.Type + ":" + id.ID
	}
	return id.Type + ":" + id.ID + "@" + id.RevisionID
}

// Clone returns a deep copy of the item so stores can hand out isolated records.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cloned := *i
	if i.Fields != nil {
		cloned.Fields = make(map[string][]FieldItem, len(i.Fields))
		for name, items := range i.Fields {
			copied := make([]FieldItem, len(items))
			for idx, item := range items {
				copied[idx] = item.Clone()
			}
			cloned.Fields[name] = copied
		}
	}
	return &cloned
}

// Clone copies the delta values. Attached items are shared.
func (f FieldItem) Clone() FieldItem {
	if f == nil {
		return nil
	}
	out := make(FieldItem, len(f))
	for key, value := range f {
		out[key] = cloneValue(value)
	}
	return out
}

// String returns the value stored under key formatted as a string.
func (f FieldItem) String(key string) (string, bool) {
	value, ok := f[key]
	if !ok || value == nil {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

// FirstValue returns the "value" column, or the first column in key order when
// the item does not use the conventional value key.
func (f FieldItem) FirstValue() (any, bool) {
	if len(f) == 0 {
		return nil, false
	}
	if value, ok := f["value"]; ok {
		return value, true
	}
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return f[keys[0]], true
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = cloneValue(val)
		}
		return out
	case FieldItem:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for idx, val := range v {
			out[idx] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// EntityKeys names the field item columns holding reference ids.
type EntityKeys struct {
	ID       string `json:"id" yaml:"id"`
	Revision string `json:"revision" yaml:"revision"`
	Bundle   string `json:"bundle" yaml:"bundle"`
}

// EntityInfo describes a known item type.
type EntityInfo struct {
	Type  string     `json:"type" yaml:"type"`
	Label string     `json:"label,omitempty" yaml:"label"`
	Keys  EntityKeys `json:"keys" yaml:"keys"`
}

// AllowedValue is a single key/label pair of a list field.
type AllowedValue struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// FieldInfo describes field storage shared across bundles.
type FieldInfo struct {
	Name             string         `json:"name" yaml:"name"`
	Type             string         `json:"type" yaml:"type"`
	Module           string         `json:"module,omitempty" yaml:"module"`
	TargetType       string         `json:"target_type,omitempty" yaml:"target_type"`
	DefaultFormatter string         `json:"default_formatter,omitempty" yaml:"default_formatter"`
	AllowedValues    []AllowedValue `json:"allowed_values,omitempty" yaml:"allowed_values"`
}

// IsReference reports whether the field points at other items.
func (f FieldInfo) IsReference() bool {
	return strings.TrimSpace(f.TargetType) != ""
}

// AllowedKeys returns the allowed value keys in declaration order.
func (f FieldInfo) AllowedKeys() []string {
	keys := make([]string, 0, len(f.AllowedValues))
	for _, allowed := range f.AllowedValues {
		keys = append(keys, allowed.Key)
	}
	return keys
}

// AllowedLabel returns the label configured for key.
func (f FieldInfo) AllowedLabel(key string) (string, bool) {
	for _, allowed := range f.AllowedValues {
		if allowed.Key == key {
			return allowed.Label, true
		}
	}
	return "", false
}

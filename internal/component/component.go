package component

import (
	"maps"
	"strings"

	"github.com/goliatone/go-patternbuilder/entity"
)

// Property is the capability shared by every node of a component tree.
type Property interface {
	Get(name string) any
	Set(name string, value any)
	// Render returns the plain data form consumed by templates.
	Render() any
	// PrepareRender exposes the raw assigned values without rendering children.
	PrepareRender() map[string]any
}

const (
	typeArray  = "array"
	typeObject = "object"
)

// Component is a property bag shaped by a resolved pattern schema.
type Component struct {
	name   string
	schema map[string]any
	order  []string
	values map[string]any

	sourceItem *entity.Item
	sourceType string
}

var _ Property = (*Component)(nil)

// New creates an empty component for the named pattern. The schema is the
// fully resolved JSON document and is treated as read-only.
func New(name string, schema map[string]any) *Component {
	return &Component{
		name:   name,
		schema: schema,
		values: map[string]any{},
	}
}

// Name returns the pattern name the component was created from.
func (c *Component) Name() string {
	return c.name
}

// Schema returns the resolved schema document.
func (c *Component) Schema() map[string]any {
	return c.schema
}

// Source records the item the component values are mapped from.
func (c *Component) Source(item *entity.Item, entityType string) *Component {
	c.sourceItem = item
	c.sourceType = entityType
	return c
}

// SourceItem returns the item and type recorded by Source.
func (c *Component) SourceItem() (*entity.Item, string) {
	return c.sourceItem, c.sourceType
}

// Properties returns the assigned property names in assignment order.
func (c *Component) Properties() []string {
	return append([]string(nil), c.order...)
}

// PropertyType returns the JSON type declared for a top level property.
func (c *Component) PropertyType(name string) string {
	return schemaType(propertySchema(c.schema, name))
}

// Empty reports whether no property has been assigned.
func (c *Component) Empty() bool {
	return len(c.values) == 0
}

func (c *Component) Get(name string) any {
	return c.values[name]
}

// Set assigns a property. Array properties accumulate values, object
// properties merge incoming maps, anything else is replaced.
func (c *Component) Set(name string, value any) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	existing, ok := c.values[name]
	if !ok {
		c.order = append(c.order, name)
	}
	c.values[name] = assign(propertySchema(c.schema, name), existing, value)
}

// Reset clears all assigned values while keeping the schema and source.
func (c *Component) Reset() {
	c.order = nil
	c.values = map[string]any{}
}

// Clone returns an unassigned component for the same schema and source.
func (c *Component) Clone() *Component {
	return New(c.name, c.schema).Source(c.sourceItem, c.sourceType)
}

func (c *Component) Render() any {
	out := make(map[string]any, len(c.values)+1)
	out["name"] = c.name
	for _, key := range c.order {
		out[key] = renderValue(c.values[key])
	}
	return out
}

func (c *Component) PrepareRender() map[string]any {
	out := make(map[string]any, len(c.values))
	maps.Copy(out, c.values)
	return out
}

func assign(schema map[string]any, existing, value any) any {
	switch schemaType(schema) {
	case typeArray:
		list, _ := existing.([]any)
		if incoming, ok := value.([]any); ok {
			return append(list, incoming...)
		}
		return append(list, value)
	case typeObject:
		incoming, ok := value.(map[string]any)
		if !ok {
			return value
		}
		current, _ := existing.(map[string]any)
		merged := make(map[string]any, len(current)+len(incoming))
		maps.Copy(merged, current)
		for key, val := range incoming {
			merged[key] = assign(propertySchema(schema, key), merged[key], val)
		}
		return merged
	default:
		if schema == nil {
			if current, ok := existing.(map[string]any); ok {
				if incoming, isMap := value.(map[string]any); isMap {
					return mergeLoose(current, incoming)
				}
			}
		}
		return value
	}
}

// mergeLoose merges nested maps for properties the schema does not describe,
// so repeated nested assignments into the same parent keep earlier siblings.
func mergeLoose(current, incoming map[string]any) map[string]any {
	merged := make(map[string]any, len(current)+len(incoming))
	maps.Copy(merged, current)
	for key, val := range incoming {
		prev, ok := merged[key].(map[string]any)
		next, isMap := val.(map[string]any)
		if ok && isMap {
			merged[key] = mergeLoose(prev, next)
			continue
		}
		merged[key] = val
	}
	return merged
}

func propertySchema(schema map[string]any, name string) map[string]any {
	if schema == nil {
		return nil
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	prop, _ := props[name].(map[string]any)
	return prop
}

func schemaType(schema map[string]any) string {
	if schema == nil {
		return ""
	}
	switch typed := schema["type"].(type) {
	case string:
		return typed
	case []any:
		for _, candidate := range typed {
			if name, ok := candidate.(string); ok && name != "null" {
				return name
			}
		}
	}
	if _, ok := schema["items"]; ok {
		return typeArray
	}
	if _, ok := schema["properties"]; ok {
		return typeObject
	}
	return ""
}

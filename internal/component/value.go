package component

import "maps"

// ValueProperty is a schema-less property bag used for generic references
// and the built-in pb_entity and pb_raw wrappers.
type ValueProperty struct {
	order  []string
	values map[string]any
}

var _ Property = (*ValueProperty)(nil)

// NewValue returns an empty value property.
func NewValue() *ValueProperty {
	return &ValueProperty{values: map[string]any{}}
}

func (v *ValueProperty) Get(name string) any {
	return v.values[name]
}

func (v *ValueProperty) Set(name string, value any) {
	if _, ok := v.values[name]; !ok {
		v.order = append(v.order, name)
	}
	v.values[name] = value
}

// SetByAssoc assigns every entry of items.
func (v *ValueProperty) SetByAssoc(items map[string]any) *ValueProperty {
	for _, key := range sortedKeys(items) {
		v.Set(key, items[key])
	}
	return v
}

func (v *ValueProperty) Render() any {
	out := make(map[string]any, len(v.values))
	for _, key := range v.order {
		out[key] = renderValue(v.values[key])
	}
	return out
}

func (v *ValueProperty) PrepareRender() map[string]any {
	out := make(map[string]any, len(v.values))
	maps.Copy(out, v.values)
	return out
}

// Tuple is an ordered sequence of values. Every Set appends.
type Tuple struct {
	items []any
}

var _ Property = (*Tuple)(nil)

// NewTuple returns an empty tuple.
func NewTuple() *Tuple {
	return &Tuple{}
}

func (t *Tuple) Get(string) any {
	return t.Items()
}

// Set appends value, the name is ignored.
func (t *Tuple) Set(_ string, value any) {
	t.Append(value)
}

// Append adds value to the end of the tuple.
func (t *Tuple) Append(value any) {
	t.items = append(t.items, value)
}

// Items returns a copy of the tuple members.
func (t *Tuple) Items() []any {
	return append([]any(nil), t.items...)
}

// Len returns the number of members.
func (t *Tuple) Len() int {
	return len(t.items)
}

func (t *Tuple) Render() any {
	out := make([]any, 0, len(t.items))
	for _, item := range t.items {
		out = append(out, renderValue(item))
	}
	return out
}

func (t *Tuple) PrepareRender() map[string]any {
	return map[string]any{"items": t.Items()}
}

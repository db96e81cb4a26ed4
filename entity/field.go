package entity

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// DisplayHidden is the display type that suppresses a field.
	DisplayHidden = "hidden"
	// DefaultDisplay is the display used when a view mode has no custom settings.
	DefaultDisplay = "default"
)

// PropertyMapping maps a raw field item key (or chained key path) to a
// component property.
type PropertyMapping struct {
	Key      string `json:"key" yaml:"key"`
	Property string `json:"property" yaml:"property"`
}

// PatternSettings holds the per-instance mapping into a pattern component.
type PatternSettings struct {
	PropertyName        string            `json:"property_name,omitempty" yaml:"property_name"`
	ParentPropertyNames []string          `json:"parent_property_names,omitempty" yaml:"parent_property_names"`
	Readonly            bool              `json:"readonly,omitempty" yaml:"readonly"`
	PropertyMap         []PropertyMapping `json:"property_map,omitempty" yaml:"property_map"`
}

// Display describes how a field is rendered for one view mode.
type Display struct {
	Type     string         `json:"type,omitempty" yaml:"type"`
	Module   string         `json:"module,omitempty" yaml:"module"`
	Label    string         `json:"label,omitempty" yaml:"label"`
	Settings map[string]any `json:"settings,omitempty" yaml:"settings"`
}

// Hidden reports whether the display suppresses the field.
func (d Display) Hidden() bool {
	return d.Type == DisplayHidden
}

// Setting returns the string form of a display setting.
func (d Display) Setting(name string) string {
	if d.Settings == nil {
		return ""
	}
	value, ok := d.Settings[name]
	if !ok || value == nil {
		return ""
	}
	if str, ok := value.(string); ok {
		return strings.TrimSpace(str)
	}
	return fmt.Sprint(value)
}

// FieldInstance binds a field to an item type and bundle.
type FieldInstance struct {
	FieldName    string             `json:"field_name" yaml:"field_name"`
	EntityType   string             `json:"entity_type" yaml:"entity_type"`
	Bundle       string             `json:"bundle" yaml:"bundle"`
	Label        string             `json:"label,omitempty" yaml:"label"`
	Weight       int                `json:"weight,omitempty" yaml:"weight"`
	DefaultValue []FieldItem        `json:"default_value,omitempty" yaml:"default_value"`
	Displays     map[string]Display `json:"displays,omitempty" yaml:"displays"`
	Pattern      PatternSettings    `json:"pattern,omitempty" yaml:"pattern"`
}

// DisplayFor resolves the display for a view mode, falling back to the
// default display and finally to a hidden one.
func (fi FieldInstance) DisplayFor(viewMode string) Display {
	if display, ok := fi.Displays[viewMode]; ok {
		return display
	}
	if display, ok := fi.Displays[DefaultDisplay]; ok {
		return display
	}
	return Display{Type: DisplayHidden}
}

// ViewContext is either a named view mode or explicit display settings.
type ViewContext struct {
	Mode     string
	Settings *Display
}

// ViewMode returns a context selecting displays by view mode name.
func ViewMode(name string) ViewContext {
	return ViewContext{Mode: strings.TrimSpace(name)}
}

// ViewSettings returns a context using the supplied display for every field.
func ViewSettings(display Display) ViewContext {
	d := display
	return ViewContext{Settings: &d}
}

// IsZero reports whether neither a mode nor settings are set.
func (v ViewContext) IsZero() bool {
	return v.Mode == "" && v.Settings == nil
}

// Key returns a stable identifier for the context. Builders compare keys to
// detect view changes between renders.
func (v ViewContext) Key() string {
	if v.Settings == nil {
		return "mode:" + v.Mode
	}
	var b strings.Builder
	b.WriteString("settings:")
	b.WriteString(v.Settings.Type)
	b.WriteByte(':')
	b.WriteString(v.Settings.Module)
	keys := make([]string, 0, len(v.Settings.Settings))
	for key := range v.Settings.Settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, ";%s=%v", key, v.Settings.Settings[key])
	}
	return b.String()
}

func (v ViewContext) String() string {
	if v.Settings == nil {
		return v.Mode
	}
	return v.Key()
}

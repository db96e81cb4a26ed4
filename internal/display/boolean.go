package display

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultBooleanOff = "0"
	defaultBooleanOn  = "1"
)

// BooleanHandler renders list_boolean fields as true/false per delta.
type BooleanHandler struct {
	*BaseHandler
	off string
	on  string
}

// BooleanFactory builds a BooleanHandler.
func BooleanFactory(ctx context.Context, deps Deps, prepared *PreparedSet, params Params) Handler {
	return NewBooleanHandler(ctx, deps, prepared, params)
}

// NewBooleanHandler detects the off/on keys from the allowed values. Fields
// without exactly two allowed values use 0 and 1.
func NewBooleanHandler(ctx context.Context, deps Deps, prepared *PreparedSet, params Params) *BooleanHandler {
	h := &BooleanHandler{
		BaseHandler: NewHandler(ctx, deps, prepared, params),
		off:         defaultBooleanOff,
		on:          defaultBooleanOn,
	}
	if keys := h.info.AllowedKeys(); len(keys) == 2 {
		sortAllowedKeys(keys)
		h.off, h.on = keys[0], keys[1]
	}
	h.render = h.renderBooleans
	return h
}

// Values returns the detected off and on keys.
func (h *BooleanHandler) Values() (off, on string) {
	return h.off, h.on
}

func (h *BooleanHandler) renderBooleans(_ context.Context, base *BaseHandler) map[int]any {
	items := base.item.Items(base.instance.FieldName)
	if len(items) == 0 {
		return nil
	}
	out := make(map[int]any, len(items))
	for delta, item := range items {
		out[delta] = h.isOn(item["value"])
	}
	return out
}

// isOn compares a raw value with the on key. Booleans map onto the off/on
// keys and numeric values compare as numbers.
func (h *BooleanHandler) isOn(value any) bool {
	var raw string
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		raw = h.off
		if v {
			raw = h.on
		}
	case string:
		raw = strings.TrimSpace(v)
	default:
		raw = fmt.Sprint(v)
	}
	if raw == h.on {
		return true
	}
	a, errA := strconv.ParseFloat(raw, 64)
	b, errB := strconv.ParseFloat(h.on, 64)
	return errA == nil && errB == nil && a == b
}

// sortAllowedKeys orders keys numerically when both parse as numbers.
func sortAllowedKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, errA := strconv.ParseFloat(keys[i], 64)
		b, errB := strconv.ParseFloat(keys[j], 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
}

package component

import "sort"

func renderValue(value any) any {
	switch typed := value.(type) {
	case Property:
		return typed.Render()
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[key] = renderValue(val)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, val := range typed {
			out = append(out, renderValue(val))
		}
		return out
	default:
		return value
	}
}

// Render returns the rendered form of any tree value.
func Render(value any) any {
	return renderValue(value)
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

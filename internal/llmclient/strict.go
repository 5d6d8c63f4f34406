package llmclient

import "sort"

// ApplyStrictMode returns a copy of schema with every key under each
// "properties" object added to that object's "required" array, recursively,
// per §6's strict JSON-schema mode. schema is not mutated in place.
func ApplyStrictMode(schema map[string]any) map[string]any {
	return applyStrict(schema).(map[string]any)
}

func applyStrict(node any) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = applyStrict(val)
		}
		if props, ok := out["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for key := range props {
				required = append(required, key)
			}
			sort.Strings(required)
			out["required"] = required
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = applyStrict(val)
		}
		return out
	default:
		return v
	}
}

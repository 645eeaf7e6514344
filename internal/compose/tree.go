package compose

import "strings"

// Helpers for mutating the nested map[string]any trees that routed service,
// compose and metadata data are built out of. Intermediate maps are created
// on demand; a non-map value found along the way is replaced by a map so a
// later, deeper write always succeeds.

// SetPath sets value at the dotted path inside root, creating intermediate
// maps as needed. An empty path is a no-op.
func SetPath(root map[string]any, path string, value any) {
	if path == "" {
		return
	}
	parts := strings.Split(path, ".")
	node := root
	for _, part := range parts[:len(parts)-1] {
		node = ensureMap(node, part)
	}
	node[parts[len(parts)-1]] = value
}

// AppendAtPath appends value to the list at the dotted path, creating the
// list (and intermediate maps) if missing. An existing non-list value at the
// path is wrapped into a list first.
func AppendAtPath(root map[string]any, path string, value any) {
	if path == "" {
		return
	}
	parts := strings.Split(path, ".")
	node := root
	for _, part := range parts[:len(parts)-1] {
		node = ensureMap(node, part)
	}
	leaf := parts[len(parts)-1]
	switch existing := node[leaf].(type) {
	case nil:
		node[leaf] = []any{value}
	case []any:
		node[leaf] = append(existing, value)
	default:
		node[leaf] = []any{existing, value}
	}
}

// GetPath reads the value at the dotted path. The second return is false when
// any segment is missing or not a map.
func GetPath(root map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	node := root
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			return nil, false
		}
		node = next
	}
	v, ok := node[parts[len(parts)-1]]
	return v, ok
}

func ensureMap(node map[string]any, key string) map[string]any {
	if m, ok := node[key].(map[string]any); ok {
		return m
	}
	m := make(map[string]any)
	node[key] = m
	return m
}

// Prune recursively removes empty-string, empty-list and empty-map leaves.
// Explicit false and 0 values survive. The cleaned value is returned along
// with a flag telling the caller to drop the value entirely.
func Prune(value any) (any, bool) {
	switch v := value.(type) {
	case string:
		return v, v == ""
	case map[string]any:
		for key, sub := range v {
			cleaned, empty := Prune(sub)
			if empty {
				delete(v, key)
				continue
			}
			v[key] = cleaned
		}
		return v, len(v) == 0
	case []any:
		out := make([]any, 0, len(v))
		for _, sub := range v {
			cleaned, empty := Prune(sub)
			if !empty {
				out = append(out, cleaned)
			}
		}
		return out, len(out) == 0
	case nil:
		return nil, true
	default:
		return v, false
	}
}

// DeepCopy copies a tree of maps, lists and scalars. Scalars are shared,
// which is safe because they are immutable.
func DeepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, sub := range v {
			out[key] = DeepCopy(sub)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, sub := range v {
			out[i] = DeepCopy(sub)
		}
		return out
	default:
		return v
	}
}

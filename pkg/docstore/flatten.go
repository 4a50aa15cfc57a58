package docstore

import (
	"encoding/json"
	"strconv"
)

// SeqKey marks a sequence encoded by FlattenTagged; its value is the length.
const SeqKey = "$seq"

// Flatten replaces every non-empty slice in v with a map keyed "0".."n-1",
// recursively. Empty slices stay empty slices since they nest nothing; maps
// keep their keys and scalars pass through.
func Flatten(v any) any {
	switch t := v.(type) {
	case []any:
		if len(t) == 0 {
			return []any{}
		}
		out := make(map[string]any, len(t))
		for i, elem := range t {
			out[strconv.Itoa(i)] = Flatten(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[k] = Flatten(elem)
		}
		return out
	default:
		return v
	}
}

// Unflatten reverses Flatten. A map whose key set is exactly "0".."n-1" (n >= 1)
// becomes a slice. A map whose keys merely look sequential is indistinguishable
// from a flattened slice and is converted as well; use the tagged variants when
// that matters.
func Unflatten(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if isSequence(m) {
		out := make([]any, len(m))
		for i := range out {
			out[i] = Unflatten(m[strconv.Itoa(i)])
		}
		return out
	}
	out := make(map[string]any, len(m))
	for k, elem := range m {
		out[k] = Unflatten(elem)
	}
	return out
}

func isSequence(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for i := 0; i < len(m); i++ {
		if _, ok := m[strconv.Itoa(i)]; !ok {
			return false
		}
	}
	return true
}

// FlattenTagged is Flatten with an explicit SeqKey marker on every converted slice.
func FlattenTagged(v any) any {
	switch t := v.(type) {
	case []any:
		out := make(map[string]any, len(t)+1)
		out[SeqKey] = len(t)
		for i, elem := range t {
			out[strconv.Itoa(i)] = FlattenTagged(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[k] = FlattenTagged(elem)
		}
		return out
	default:
		return v
	}
}

// UnflattenTagged reverses FlattenTagged. Only maps carrying SeqKey become
// slices; indexes missing from a damaged map decode as nil.
func UnflattenTagged(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if n, ok := seqLength(m[SeqKey]); ok {
		out := make([]any, n)
		for i := range out {
			out[i] = UnflattenTagged(m[strconv.Itoa(i)])
		}
		return out
	}
	out := make(map[string]any, len(m))
	for k, elem := range m {
		out[k] = UnflattenTagged(elem)
	}
	return out
}

func seqLength(v any) (int, bool) {
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case float64:
		n = int(t)
		if float64(n) != t {
			return 0, false
		}
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		n = int(i)
	default:
		return 0, false
	}
	if n < 0 {
		return 0, false
	}
	return n, true
}

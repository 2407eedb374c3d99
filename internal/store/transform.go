package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// transformKey marks an encoded transform inside a JSON field value
const transformKey = "$transform"

// Transform: server-side field operation applied atomically inside one write
type Transform interface {
	apply(current any, exists bool, now string) (any, error)
	json.Marshaler
}

type arrayUnion struct {
	values []any
}

// ArrayUnion appends each value not already present in the array field
func ArrayUnion(values ...any) Transform {
	return arrayUnion{values: values}
}

func (t arrayUnion) apply(current any, _ bool, _ string) (any, error) {
	existing, _ := current.([]any)
	result := make([]any, len(existing), len(existing)+len(t.values))
	copy(result, existing)

	for _, v := range t.values {
		nv, err := normalize(v)
		if err != nil {
			return nil, err
		}
		if !containsValue(result, nv) {
			result = append(result, nv)
		}
	}
	return result, nil
}

func (t arrayUnion) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{transformKey: "arrayUnion", "values": t.values})
}

type increment struct {
	delta float64
}

// Increment adds delta to a numeric field, treating a missing field as zero
func Increment(delta int64) Transform {
	return increment{delta: float64(delta)}
}

func (t increment) apply(current any, _ bool, _ string) (any, error) {
	n, _ := current.(float64)
	return n + t.delta, nil
}

func (t increment) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{transformKey: "increment", "delta": t.delta})
}

type serverTimestamp struct{}

// ServerTimestamp stores the write's server instant
func ServerTimestamp() Transform {
	return serverTimestamp{}
}

func (serverTimestamp) apply(_ any, _ bool, now string) (any, error) {
	return now, nil
}

func (serverTimestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{transformKey: "serverTimestamp"})
}

type patchArrayElement struct {
	key   string
	match any
	patch Fields
}

// PatchArrayElement merges patch into every object element of the array field
// whose key field equals match. Elements are never reordered or removed.
func PatchArrayElement(key string, match any, patch Fields) Transform {
	return patchArrayElement{key: key, match: match, patch: patch}
}

func (t patchArrayElement) apply(current any, _ bool, _ string) (any, error) {
	existing, _ := current.([]any)
	match, err := normalize(t.match)
	if err != nil {
		return nil, err
	}
	normalizedPatch, err := normalize(map[string]any(t.patch))
	if err != nil {
		return nil, err
	}
	patch, _ := normalizedPatch.(map[string]any)

	result := make([]any, len(existing))
	for i, elem := range existing {
		m, ok := elem.(map[string]any)
		if !ok || !reflect.DeepEqual(m[t.key], match) {
			result[i] = elem
			continue
		}
		patched := make(map[string]any, len(m))
		for k, v := range m {
			patched[k] = v
		}
		for k, v := range patch {
			patched[k] = v
		}
		result[i] = patched
	}
	return result, nil
}

func (t patchArrayElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{transformKey: "patchArrayElement", "key": t.key, "match": t.match, "patch": t.patch})
}

// DecodeFields parses a JSON field map, rebuilding encoded transforms
func DecodeFields(raw []byte) (Fields, error) {
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}

	fields := make(Fields, len(decoded))
	for key, value := range decoded {
		t, isTransform, err := decodeTransform(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		if isTransform {
			fields[key] = t
			continue
		}
		fields[key] = value
	}
	return fields, nil
}

func decodeTransform(value any) (Transform, bool, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, false, nil
	}
	name, ok := m[transformKey].(string)
	if !ok {
		return nil, false, nil
	}

	switch name {
	case "arrayUnion":
		values, _ := m["values"].([]any)
		return ArrayUnion(values...), true, nil
	case "increment":
		delta, _ := m["delta"].(float64)
		return increment{delta: delta}, true, nil
	case "serverTimestamp":
		return ServerTimestamp(), true, nil
	case "patchArrayElement":
		key, _ := m["key"].(string)
		patch, _ := m["patch"].(map[string]any)
		return PatchArrayElement(key, m["match"], patch), true, nil
	default:
		return nil, false, fmt.Errorf("unknown transform %q", name)
	}
}

// applyFields writes fields into doc, resolving transforms against current values.
// Keys are applied in sorted order so nested paths land deterministically.
func applyFields(doc map[string]any, fields Fields, now string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, path := range keys {
		if path == "" {
			return fmt.Errorf("empty field path")
		}
		var value any
		switch v := fields[path].(type) {
		case Transform:
			current, exists := getPath(doc, path)
			resolved, err := v.apply(current, exists, now)
			if err != nil {
				return fmt.Errorf("field %s: %w", path, err)
			}
			value = resolved
		default:
			normalized, err := normalize(v)
			if err != nil {
				return fmt.Errorf("field %s: %w", path, err)
			}
			value = normalized
		}
		setPath(doc, path, value)
	}
	return nil
}

// normalize converts any JSON-encodable value into its generic JSON tree form
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON encodable: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func getPath(doc map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = doc
	for _, p := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func setPath(doc map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	m := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

func containsValue(values []any, v any) bool {
	for _, existing := range values {
		if reflect.DeepEqual(existing, v) {
			return true
		}
	}
	return false
}

// deepCopy duplicates a generic JSON tree
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case Fields:
		return deepCopy(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

func copyFields(f map[string]any) Fields {
	if f == nil {
		return Fields{}
	}
	return Fields(deepCopy(f).(map[string]any))
}

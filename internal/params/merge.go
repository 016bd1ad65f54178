// Package params merges option maps the way request configurations are built:
// defaults first, then the call's own settings, then per-call overrides.
package params

import "reflect"

type undefined struct{}

// Undefined marks a value as "not provided". It never overwrites an existing
// value, unlike an explicit nil which does.
var Undefined any = undefined{}

// Merge shallow-copies the keys of every source onto target, later sources
// winning. A nil target is replaced by a fresh map. The (possibly new) target
// is returned.
func Merge(target map[string]any, sources ...map[string]any) map[string]any {
	return merge(false, target, sources)
}

// DeepMerge is Merge, but nested maps and slices are merged recursively
// instead of being replaced.
func DeepMerge(target map[string]any, sources ...map[string]any) map[string]any {
	return merge(true, target, sources)
}

// Extend is the untyped form of Merge and DeepMerge. A target that is not a
// map[string]any is coerced to an empty map; sources that are not maps are
// skipped.
func Extend(deep bool, target any, sources ...any) map[string]any {
	t, _ := target.(map[string]any)
	maps := make([]map[string]any, 0, len(sources))
	for _, s := range sources {
		if m, ok := s.(map[string]any); ok {
			maps = append(maps, m)
		}
	}
	return merge(deep, t, maps)
}

func merge(deep bool, target map[string]any, sources []map[string]any) map[string]any {
	if target == nil {
		target = make(map[string]any)
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		for key, incoming := range src {
			existing, has := target[key]
			if has && identical(existing, incoming) {
				continue
			}
			if v, ok := mergeValue(deep, existing, incoming); ok {
				target[key] = v
			}
		}
	}
	return target
}

// mergeValue returns the value to store for incoming given what is already
// there. ok is false when nothing should be written.
func mergeValue(deep bool, existing, incoming any) (any, bool) {
	if incoming == Undefined {
		return nil, false
	}
	if !deep {
		return incoming, true
	}
	switch in := incoming.(type) {
	case map[string]any:
		clone, ok := existing.(map[string]any)
		if !ok || clone == nil {
			clone = make(map[string]any, len(in))
		}
		return merge(true, clone, []map[string]any{in}), true
	case []any:
		clone, ok := existing.([]any)
		if !ok {
			clone = make([]any, 0, len(in))
		}
		return mergeSlice(clone, in), true
	}
	return incoming, true
}

func mergeSlice(target, src []any) []any {
	for i, incoming := range src {
		var existing any
		has := i < len(target)
		if has {
			existing = target[i]
			if identical(existing, incoming) {
				continue
			}
		}
		v, ok := mergeValue(true, existing, incoming)
		if !ok {
			continue
		}
		for len(target) <= i {
			target = append(target, nil)
		}
		target[i] = v
	}
	return target
}

// identical reports whether a and b are the same value: equal when the type is
// comparable, the same backing storage for maps, slices and pointers.
func identical(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	}
	if !ta.Comparable() {
		return false
	}
	// Structs with interface fields holding uncomparable values panic on ==.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

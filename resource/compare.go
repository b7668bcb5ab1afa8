package resource

import "reflect"

// Merge returns a deep copy of existing with desired overlaid. Nested objects
// merge key by key so unrelated nested keys survive; any other value replaces
// what was there.
func Merge(existing Object, desired Object) Object {
	merged := CloneObject(existing)
	if merged == nil {
		merged = map[string]any{}
	}
	mergeInto(merged, desired)
	return merged
}

func mergeInto(target map[string]any, overlay map[string]any) {
	for key, value := range overlay {
		overlayChild, overlayIsObject := value.(map[string]any)
		targetChild, targetIsObject := target[key].(map[string]any)
		if overlayIsObject && targetIsObject {
			mergeInto(targetChild, overlayChild)
			continue
		}
		target[key] = Clone(value)
	}
}

// Compare computes the state the remote resource would have after desired is
// applied and reports whether that differs from existing once the ignore
// paths are removed from both sides. Neither input is modified.
//
// An empty desired object never reports a change.
func Compare(existing Object, desired Object, ignore []FieldPath) (bool, Object) {
	mergedAfter := Merge(existing, desired)
	if len(desired) == 0 {
		return false, mergedAfter
	}
	return !Equal(existing, mergedAfter, ignore), mergedAfter
}

// Equal reports whether a and b are deeply equal with ignore paths removed.
func Equal(a Object, b Object, ignore []FieldPath) bool {
	return reflect.DeepEqual(Strip(a, ignore), Strip(b, ignore))
}

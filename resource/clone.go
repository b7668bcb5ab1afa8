package resource

import "github.com/mitchellh/copystructure"

// Clone returns a deep copy of value. Nested maps and slices never share
// storage with the input.
func Clone(value Value) Value {
	if value == nil {
		return nil
	}
	copied, err := copystructure.Copy(value)
	if err != nil {
		// copystructure only fails on values that cannot appear in a decoded
		// payload (channels, funcs); fall back to the manual walk.
		return cloneValue(value)
	}
	return copied
}

// CloneObject deep copies obj. A nil object stays nil.
func CloneObject(obj Object) Object {
	if obj == nil {
		return nil
	}
	copied, _ := Clone(obj).(map[string]any)
	return copied
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		copied := make(map[string]any, len(typed))
		for key, item := range typed {
			copied[key] = cloneValue(item)
		}
		return copied
	case []any:
		copied := make([]any, len(typed))
		for idx := range typed {
			copied[idx] = cloneValue(typed[idx])
		}
		return copied
	default:
		return typed
	}
}

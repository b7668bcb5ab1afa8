package resource

// Value is any JSON-compatible value after normalization.
type Value = any

// Object is a decoded JSON object: a remote resource or a desired-state
// payload. Absent keys carry no preference.
type Object = map[string]any

type DiffEntry struct {
	Path      string `json:"path" yaml:"path"`
	Operation string `json:"op" yaml:"op"`
	Before    Value  `json:"before,omitempty" yaml:"before,omitempty"`
	After     Value  `json:"after,omitempty" yaml:"after,omitempty"`
}

// AsObject returns value as an Object when it is one.
func AsObject(value Value) (Object, bool) {
	obj, ok := value.(map[string]any)
	return obj, ok
}

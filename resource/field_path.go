package resource

import (
	"fmt"
	"strings"

	"github.com/crmarques/harborsync/faults"
)

// FieldPath addresses a nested object key, parsed from a JSON pointer such as
// "/credential/access_secret".
type FieldPath []string

func ParseFieldPath(pointer string) (FieldPath, error) {
	trimmed := strings.TrimSpace(pointer)
	if trimmed == "" || trimmed == "/" {
		return nil, faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("field path %q must address a field", pointer),
			nil,
		)
	}
	if !strings.HasPrefix(trimmed, "/") {
		return nil, faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("invalid field path %q", pointer),
			nil,
		)
	}

	rawTokens := strings.Split(trimmed[1:], "/")
	tokens := make(FieldPath, len(rawTokens))
	for idx, token := range rawTokens {
		if token == "" {
			return nil, faults.NewTypedError(
				faults.ValidationError,
				fmt.Sprintf("field path %q has an empty segment", pointer),
				nil,
			)
		}
		unescaped := strings.ReplaceAll(token, "~1", "/")
		tokens[idx] = strings.ReplaceAll(unescaped, "~0", "~")
	}
	return tokens, nil
}

// MustFieldPaths parses static pointer tables and panics on a malformed entry.
func MustFieldPaths(pointers ...string) []FieldPath {
	paths := make([]FieldPath, 0, len(pointers))
	for _, pointer := range pointers {
		path, err := ParseFieldPath(pointer)
		if err != nil {
			panic(err)
		}
		paths = append(paths, path)
	}
	return paths
}

func (p FieldPath) String() string {
	var builder strings.Builder
	for _, token := range p {
		builder.WriteByte('/')
		builder.WriteString(escapePointerToken(token))
	}
	return builder.String()
}

// Strip returns a copy of obj with every path in ignore removed. Parents left
// empty by a removal are kept so the object shape does not change.
func Strip(obj Object, ignore []FieldPath) Object {
	if obj == nil {
		return nil
	}
	stripped := CloneObject(obj)
	for _, path := range ignore {
		deleteFieldPath(stripped, path)
	}
	return stripped
}

func deleteFieldPath(fields map[string]any, path FieldPath) {
	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		delete(fields, path[0])
		return
	}
	child, ok := fields[path[0]].(map[string]any)
	if !ok {
		return
	}
	deleteFieldPath(child, path[1:])
}

func escapePointerToken(value string) string {
	escaped := strings.ReplaceAll(value, "~", "~0")
	return strings.ReplaceAll(escaped, "/", "~1")
}

package resource

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/crmarques/harborsync/faults"
)

// Normalize converts value into the canonical shape used for comparison:
// integers become int64, json.Number is resolved, nested maps and slices are
// rebuilt as map[string]any and []any. Desired payloads built from Go values
// and payloads decoded from Harbor therefore compare equal when they carry
// the same data.
func Normalize(value Value) (Value, error) {
	switch typed := value.(type) {
	case nil, bool, string, int64:
		return typed, nil
	case int:
		return int64(typed), nil
	case int32:
		return int64(typed), nil
	case uint32:
		return int64(typed), nil
	case uint64:
		if typed > math.MaxInt64 {
			return nil, faults.NewTypedError(faults.ValidationError, "payload contains integer out of range", nil)
		}
		return int64(typed), nil
	case float32:
		return normalizeFloat(float64(typed))
	case float64:
		return normalizeFloat(typed)
	case json.Number:
		if asInt, err := typed.Int64(); err == nil {
			return asInt, nil
		}
		asFloat, err := typed.Float64()
		if err != nil {
			return nil, faults.NewTypedError(faults.ValidationError, "payload contains invalid number", err)
		}
		return normalizeFloat(asFloat)
	case []any:
		items := make([]any, len(typed))
		for idx, item := range typed {
			normalized, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			items[idx] = normalized
		}
		return items, nil
	case map[string]any:
		fields := make(map[string]any, len(typed))
		for key, item := range typed {
			normalized, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			fields[key] = normalized
		}
		return fields, nil
	case map[string]string:
		fields := make(map[string]any, len(typed))
		for key, item := range typed {
			fields[key] = item
		}
		return fields, nil
	}

	return normalizeReflect(value)
}

// NormalizeObject normalizes obj and asserts the result is still an object.
func NormalizeObject(obj Object) (Object, error) {
	if obj == nil {
		return nil, nil
	}
	normalized, err := Normalize(obj)
	if err != nil {
		return nil, err
	}
	out, _ := AsObject(normalized)
	return out, nil
}

func normalizeFloat(value float64) (Value, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, faults.NewTypedError(faults.ValidationError, "payload contains non-finite float", nil)
	}
	if value == math.Trunc(value) && math.Abs(value) < 1<<53 {
		return int64(value), nil
	}
	return value, nil
}

func normalizeReflect(value any) (Value, error) {
	reflectValue := reflect.ValueOf(value)
	switch reflectValue.Kind() {
	case reflect.Int8, reflect.Int16:
		return reflectValue.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16:
		return int64(reflectValue.Uint()), nil
	case reflect.Pointer:
		if reflectValue.IsNil() {
			return nil, nil
		}
		return Normalize(reflectValue.Elem().Interface())
	case reflect.Map:
		if reflectValue.Type().Key().Kind() != reflect.String {
			return nil, faults.NewTypedError(faults.ValidationError, "payload map keys must be strings", nil)
		}
		fields := make(map[string]any, reflectValue.Len())
		iter := reflectValue.MapRange()
		for iter.Next() {
			normalized, err := Normalize(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			fields[iter.Key().String()] = normalized
		}
		return fields, nil
	case reflect.Slice, reflect.Array:
		items := make([]any, reflectValue.Len())
		for idx := range items {
			normalized, err := Normalize(reflectValue.Index(idx).Interface())
			if err != nil {
				return nil, err
			}
			items[idx] = normalized
		}
		return items, nil
	default:
		return nil, faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("unsupported payload type %T", value),
			nil,
		)
	}
}

package harbor

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/resource"
	"github.com/crmarques/harborsync/transport"
)

const (
	pageSize = 100
	maxPages = 1000

	// Harbor's name filters are fuzzy, so every list lookup is narrowed to
	// the exact name locally.
	exactNameFilter = `.[] | select(.name == $name)`
)

var filterCodeCache sync.Map

// listAll pages through a Harbor list endpoint until a short page.
func listAll(ctx context.Context, client transport.Client, path string, query url.Values) ([]any, error) {
	items := make([]any, 0)
	for page := 1; page <= maxPages; page++ {
		pageQuery := cloneQuery(query)
		pageQuery.Set("page", strconv.Itoa(page))
		pageQuery.Set("page_size", strconv.Itoa(pageSize))

		normalized, typedErr := transport.InterpretResponse(client.Do(ctx, transport.Get(path, pageQuery)))
		if typedErr != nil {
			return nil, typedErr
		}
		if normalized.Data == nil {
			return items, nil
		}

		entries, ok := normalized.Data.([]any)
		if !ok {
			return nil, faults.NewTypedError(
				faults.DecodeError,
				fmt.Sprintf("expected a JSON array from %s, got %T", path, normalized.Data),
				nil,
			)
		}
		items = append(items, entries...)
		if len(entries) < pageSize {
			return items, nil
		}
	}
	return items, nil
}

// findByName returns the first item whose name is exactly name, or nil.
func findByName(ctx context.Context, items []any, name string) (resource.Object, error) {
	code, err := cachedFilterCode(exactNameFilter, "$name")
	if err != nil {
		return nil, faults.NewTypedError(faults.UnknownError, "invalid name filter", err)
	}

	iterator := code.RunWithContext(ctx, toJQValue(items), name)
	for {
		value, ok := iterator.Next()
		if !ok {
			return nil, nil
		}
		if valueErr, isErr := value.(error); isErr {
			return nil, faults.NewTypedError(faults.DecodeError, "failed to filter list by name", valueErr)
		}

		normalized, err := resource.Normalize(value)
		if err != nil {
			return nil, err
		}
		if obj, ok := resource.AsObject(normalized); ok {
			return obj, nil
		}
	}
}

func cachedFilterCode(expression string, variables ...string) (*gojq.Code, error) {
	if cached, ok := filterCodeCache.Load(expression); ok {
		if typed, ok := cached.(*gojq.Code); ok && typed != nil {
			return typed, nil
		}
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, err
	}
	code, err := gojq.Compile(query, gojq.WithVariables(variables))
	if err != nil {
		return nil, err
	}

	actual, _ := filterCodeCache.LoadOrStore(expression, code)
	typed, _ := actual.(*gojq.Code)
	if typed == nil {
		return code, nil
	}
	return typed, nil
}

// toJQValue converts normalized int64 numbers to int, which gojq accepts.
func toJQValue(value any) any {
	switch typed := value.(type) {
	case int64:
		return int(typed)
	case map[string]any:
		converted := make(map[string]any, len(typed))
		for key, item := range typed {
			converted[key] = toJQValue(item)
		}
		return converted
	case []any:
		converted := make([]any, len(typed))
		for idx, item := range typed {
			converted[idx] = toJQValue(item)
		}
		return converted
	default:
		return value
	}
}

func cloneQuery(query url.Values) url.Values {
	cloned := make(url.Values, len(query)+2)
	for key, values := range query {
		cloned[key] = append([]string(nil), values...)
	}
	return cloned
}

// objectID reads a numeric identifier such as project_id from a remote
// resource.
func objectID(obj resource.Object, key string) (int64, error) {
	switch value := obj[key].(type) {
	case int64:
		return value, nil
	case float64:
		return int64(value), nil
	default:
		return 0, faults.NewTypedError(
			faults.DecodeError,
			fmt.Sprintf("remote resource has no numeric %q", key),
			nil,
		)
	}
}

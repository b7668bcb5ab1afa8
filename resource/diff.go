package resource

import (
	"reflect"
	"sort"
	"strconv"
)

// BuildDiff lists the JSON-pointer level differences between before and
// after, sorted by path.
func BuildDiff(before Value, after Value) []DiffEntry {
	entries := make([]DiffEntry, 0)
	collectDiffEntries(&entries, "", before, after)
	return entries
}

func collectDiffEntries(entries *[]DiffEntry, pointer string, before any, after any) {
	if reflect.DeepEqual(before, after) {
		return
	}

	beforeObject, beforeIsObject := before.(map[string]any)
	afterObject, afterIsObject := after.(map[string]any)
	if beforeIsObject && afterIsObject {
		keys := make([]string, 0, len(beforeObject)+len(afterObject))
		for key := range beforeObject {
			keys = append(keys, key)
		}
		for key := range afterObject {
			if _, found := beforeObject[key]; !found {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)

		for _, key := range keys {
			nextPointer := pointer + "/" + escapePointerToken(key)
			beforeValue, beforeFound := beforeObject[key]
			afterValue, afterFound := afterObject[key]

			switch {
			case !beforeFound:
				*entries = append(*entries, DiffEntry{Path: nextPointer, Operation: "add", After: afterValue})
			case !afterFound:
				*entries = append(*entries, DiffEntry{Path: nextPointer, Operation: "remove", Before: beforeValue})
			default:
				collectDiffEntries(entries, nextPointer, beforeValue, afterValue)
			}
		}
		return
	}

	beforeArray, beforeIsArray := before.([]any)
	afterArray, afterIsArray := after.([]any)
	if beforeIsArray && afterIsArray {
		for idx := range max(len(beforeArray), len(afterArray)) {
			nextPointer := pointer + "/" + strconv.Itoa(idx)

			switch {
			case idx >= len(beforeArray):
				*entries = append(*entries, DiffEntry{Path: nextPointer, Operation: "add", After: afterArray[idx]})
			case idx >= len(afterArray):
				*entries = append(*entries, DiffEntry{Path: nextPointer, Operation: "remove", Before: beforeArray[idx]})
			default:
				collectDiffEntries(entries, nextPointer, beforeArray[idx], afterArray[idx])
			}
		}
		return
	}

	*entries = append(*entries, DiffEntry{Path: pointer, Operation: "replace", Before: before, After: after})
}

package common

import (
	"encoding/json"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/crmarques/harborsync/reconciler"
	"github.com/crmarques/harborsync/resource"
)

// RenderDiff prints a line diff of the indented JSON snapshots, prefixing
// removed lines with "-" and added lines with "+".
func RenderDiff(diff *reconciler.Diff) (string, error) {
	if diff == nil {
		return "", nil
	}

	before, err := indentedJSON(diff.Before)
	if err != nil {
		return "", err
	}
	after, err := indentedJSON(diff.After)
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(beforeChars, afterChars, false), lines)

	var builder strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			builder.WriteString(prefix)
			builder.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				builder.WriteString("\n")
			}
		}
	}
	return builder.String(), nil
}

func indentedJSON(obj resource.Object) (string, error) {
	if obj == nil {
		return "", nil
	}
	encoded, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return "", err
	}
	return string(encoded) + "\n", nil
}

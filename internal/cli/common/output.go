package common

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/crmarques/harborsync/harbor"
	"github.com/crmarques/harborsync/reconciler"
	"github.com/crmarques/harborsync/yamlutil"
)

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

func ValidateOutputFormat(format string) error {
	switch format {
	case OutputText, OutputJSON, OutputYAML:
		return nil
	default:
		return ValidationError("invalid output format: use text, json, or yaml", nil)
	}
}

func WriteOutput[T any](command *cobra.Command, format string, value T, renderText func(io.Writer, T) error) error {
	if isNilOutputValue(value) {
		return nil
	}

	switch format {
	case OutputText:
		if renderText != nil {
			return renderText(command.OutOrStdout(), value)
		}
		_, err := fmt.Fprintln(command.OutOrStdout(), value)
		return err
	case OutputJSON:
		encoded, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(command.OutOrStdout(), string(encoded))
		return err
	case OutputYAML:
		encoded, err := yamlutil.MarshalWithIndent(value, yamlutil.DefaultIndent)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(command.OutOrStdout(), string(encoded))
		return err
	default:
		return ValidationError("invalid output format: use text, json, or yaml", nil)
	}
}

// WriteItemResults renders reconcile results. The text form prints one
// status line per item followed by its diff when there is one.
func WriteItemResults(command *cobra.Command, format string, items []harbor.ItemResult, showDiff bool) error {
	return WriteOutput(command, format, items, func(w io.Writer, values []harbor.ItemResult) error {
		for _, item := range values {
			if err := writeItemText(w, item, showDiff); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeItemText(w io.Writer, item harbor.ItemResult, showDiff bool) error {
	status := "unchanged"
	switch {
	case item.Result.Err != nil:
		status = "failed"
	case item.Result.Changed:
		status = "changed"
	}

	line := fmt.Sprintf("%s %q: %s", item.Kind, item.Name, status)
	if item.Result.Action != "" && item.Result.Action != reconciler.ActionNone {
		line += fmt.Sprintf(" (%s)", item.Result.Action)
	}
	if item.Result.Err != nil {
		line += ": " + item.Result.Err.Error()
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}

	if !showDiff || item.Result.Diff == nil {
		return nil
	}
	rendered, err := RenderDiff(item.Result.Diff)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, rendered)
	return err
}

func isNilOutputValue[T any](value T) bool {
	anyValue := any(value)
	if anyValue == nil {
		return true
	}

	reflected := reflect.ValueOf(anyValue)
	switch reflected.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return reflected.IsNil()
	default:
		return false
	}
}

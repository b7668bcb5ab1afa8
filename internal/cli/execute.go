package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/internal/cli/common"
)

// Execute runs the root command and prints a failure on stderr, as JSON
// when --output json was requested.
func Execute(ctx context.Context, deps Dependencies, args []string) error {
	root := NewRootCommand(deps)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		writeError(root.ErrOrStderr(), outputFormatFromArgs(args), err)
		return err
	}
	return nil
}

type errorReport struct {
	Error      string               `json:"error"`
	Cause      faults.ErrorCategory `json:"cause,omitempty"`
	HTTPStatus int                  `json:"httpStatus,omitempty"`
}

func writeError(w io.Writer, format string, err error) {
	message := strings.TrimSpace(err.Error())
	if format != common.OutputJSON {
		_, _ = fmt.Fprintf(w, "error: %s\n", message)
		return
	}

	report := errorReport{Error: message}
	var typedErr *faults.TypedError
	if errors.As(err, &typedErr) {
		report.Cause = typedErr.Category
		report.HTTPStatus = typedErr.StatusCode
	}
	encoded, marshalErr := json.Marshal(report)
	if marshalErr != nil {
		_, _ = fmt.Fprintf(w, "error: %s\n", message)
		return
	}
	_, _ = fmt.Fprintln(w, string(encoded))
}

// outputFormatFromArgs finds --output without running cobra, so errors
// raised while parsing other flags are still rendered in the right format.
func outputFormatFromArgs(args []string) string {
	flags := pflag.NewFlagSet("output", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.SetOutput(io.Discard)

	var output string
	flags.StringVarP(&output, "output", "o", common.OutputText, "")
	if err := flags.Parse(args); err != nil {
		return common.OutputText
	}
	return output
}

func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}

	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) {
		return 1
	}

	switch typedErr.Category {
	case faults.ValidationError:
		return 2
	case faults.APIError:
		return 3
	case faults.NetworkError:
		return 4
	case faults.DecodeError:
		return 5
	default:
		return 1
	}
}

package reconciler

import (
	"fmt"
	"strings"

	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/resource"
)

type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

func ParseState(value string) (State, error) {
	switch State(strings.ToLower(strings.TrimSpace(value))) {
	case "", StatePresent:
		return StatePresent, nil
	case StateAbsent:
		return StateAbsent, nil
	default:
		return "", faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("invalid state %q: use present or absent", value),
			nil,
		)
	}
}

// Action is the corrective step a reconciliation decided on.
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Diff holds before/after snapshots with ignored fields removed, so
// write-only secrets never appear in it.
type Diff struct {
	Before  resource.Object      `json:"before" yaml:"before"`
	After   resource.Object      `json:"after" yaml:"after"`
	Entries []resource.DiffEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// Result is produced once per reconciliation and not modified afterwards.
type Result struct {
	Changed  bool               `json:"changed" yaml:"changed"`
	Action   Action             `json:"action" yaml:"action"`
	Resource resource.Object    `json:"resource,omitempty" yaml:"resource,omitempty"`
	Diff     *Diff              `json:"diff,omitempty" yaml:"diff,omitempty"`
	Err      *faults.TypedError `json:"error,omitempty" yaml:"error,omitempty"`
}

// Error returns Err as an error, or a nil interface when there is none.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

func (r Result) outcome() string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.Changed:
		return "changed"
	default:
		return "unchanged"
	}
}

func newDiff(before resource.Object, after resource.Object, ignore []resource.FieldPath) *Diff {
	strippedBefore := resource.Strip(before, ignore)
	strippedAfter := resource.Strip(after, ignore)
	var beforeValue, afterValue resource.Value
	if strippedBefore != nil {
		beforeValue = strippedBefore
	}
	if strippedAfter != nil {
		afterValue = strippedAfter
	}
	return &Diff{
		Before:  strippedBefore,
		After:   strippedAfter,
		Entries: resource.BuildDiff(beforeValue, afterValue),
	}
}

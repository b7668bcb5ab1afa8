package reconciler

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/resource"
	"github.com/crmarques/harborsync/transport"
)

// LookupFunc returns the current remote resource, or nil when it does not
// exist. An error means the lookup itself failed.
type LookupFunc func(ctx context.Context) (resource.Object, error)

type CreateFunc func(ctx context.Context, payload resource.Object) Outcome

type UpdateFunc func(ctx context.Context, existing resource.Object, payload resource.Object) Outcome

type DeleteFunc func(ctx context.Context, existing resource.Object) Outcome

// Outcome is what a mutating operation reports back. OK is the caller's
// success predicate applied to Response. Err is set when the request could
// not even be issued.
type Outcome struct {
	Response transport.Response
	OK       bool
	Err      error
}

type Operations struct {
	Lookup LookupFunc
	Create CreateFunc
	Update UpdateFunc
	Delete DeleteFunc
}

// Reconcile drives one resource toward target. At most one mutating
// operation is issued, followed by at most one verification lookup; in
// dry-run mode no mutating operation is issued at all.
func Reconcile(
	ctx context.Context,
	ops Operations,
	desired resource.Object,
	ignore []resource.FieldPath,
	target State,
	dryRun bool,
) Result {
	log := logr.FromContextOrDiscard(ctx)

	if ops.Lookup == nil {
		return Result{Action: ActionNone, Err: unsupported("lookup")}
	}
	normalizedDesired, err := resource.NormalizeObject(desired)
	if err != nil {
		return Result{Action: ActionNone, Err: faults.AsTyped(err)}
	}

	existing, lookupErr := lookup(ctx, ops)
	if lookupErr != nil {
		log.V(1).Info("lookup failed", "error", lookupErr.Error())
		return Result{Action: ActionNone, Err: lookupErr}
	}

	switch target {
	case StateAbsent:
		return reconcileAbsent(ctx, log, ops, existing, ignore, dryRun)
	case StatePresent:
		if existing == nil {
			return reconcileCreate(ctx, log, ops, normalizedDesired, ignore, dryRun)
		}
		return reconcileUpdate(ctx, log, ops, existing, normalizedDesired, ignore, dryRun)
	default:
		return Result{
			Action: ActionNone,
			Err: faults.NewTypedError(
				faults.ValidationError,
				fmt.Sprintf("invalid target state %q", target),
				nil,
			),
		}
	}
}

func reconcileAbsent(
	ctx context.Context,
	log logr.Logger,
	ops Operations,
	existing resource.Object,
	ignore []resource.FieldPath,
	dryRun bool,
) Result {
	if existing == nil {
		log.V(1).Info("resource already absent")
		return Result{Action: ActionNone}
	}
	if dryRun {
		log.V(1).Info("would delete resource")
		return Result{Changed: true, Action: ActionDelete, Diff: newDiff(existing, nil, ignore)}
	}
	if ops.Delete == nil {
		return Result{Action: ActionDelete, Resource: existing, Err: unsupported("delete")}
	}

	outcome := ops.Delete(ctx, existing)
	if !outcome.OK {
		return Result{Action: ActionDelete, Resource: existing, Err: outcomeError(outcome)}
	}
	log.V(1).Info("deleted resource")
	return Result{Changed: true, Action: ActionDelete}
}

func reconcileCreate(
	ctx context.Context,
	log logr.Logger,
	ops Operations,
	desired resource.Object,
	ignore []resource.FieldPath,
	dryRun bool,
) Result {
	if dryRun {
		log.V(1).Info("would create resource")
		return Result{Changed: true, Action: ActionCreate, Diff: newDiff(nil, desired, ignore)}
	}
	if ops.Create == nil {
		return Result{Action: ActionCreate, Err: unsupported("create")}
	}

	outcome := ops.Create(ctx, resource.CloneObject(desired))
	if !outcome.OK {
		return Result{Action: ActionCreate, Err: outcomeError(outcome)}
	}
	log.V(1).Info("created resource")

	created, err := lookup(ctx, ops)
	if err != nil {
		return Result{Changed: true, Action: ActionCreate, Err: err}
	}
	return Result{Changed: true, Action: ActionCreate, Resource: created}
}

func reconcileUpdate(
	ctx context.Context,
	log logr.Logger,
	ops Operations,
	existing resource.Object,
	desired resource.Object,
	ignore []resource.FieldPath,
	dryRun bool,
) Result {
	changed, mergedAfter := resource.Compare(existing, desired, ignore)
	if !changed {
		log.V(1).Info("resource up to date")
		return Result{Action: ActionNone, Resource: existing}
	}
	if dryRun {
		log.V(1).Info("would update resource")
		return Result{
			Changed:  true,
			Action:   ActionUpdate,
			Resource: existing,
			Diff:     newDiff(existing, mergedAfter, ignore),
		}
	}
	if ops.Update == nil {
		return Result{Action: ActionUpdate, Resource: existing, Err: unsupported("update")}
	}

	// Only the desired fields are sent; Harbor leaves omitted fields as they are.
	outcome := ops.Update(ctx, existing, resource.CloneObject(desired))
	if !outcome.OK {
		return Result{Action: ActionUpdate, Resource: existing, Err: outcomeError(outcome)}
	}

	after, err := lookup(ctx, ops)
	if err != nil {
		return Result{Changed: true, Action: ActionUpdate, Err: err}
	}
	if resource.Equal(existing, after, ignore) {
		log.V(1).Info("update round-tripped to the same state")
		return Result{Action: ActionUpdate, Resource: after}
	}
	log.V(1).Info("updated resource")
	return Result{
		Changed:  true,
		Action:   ActionUpdate,
		Resource: after,
		Diff:     newDiff(existing, after, ignore),
	}
}

func lookup(ctx context.Context, ops Operations) (resource.Object, *faults.TypedError) {
	current, err := ops.Lookup(ctx)
	if err != nil {
		return nil, faults.AsTyped(err)
	}
	normalized, err := resource.NormalizeObject(current)
	if err != nil {
		return nil, faults.AsTyped(err)
	}
	return normalized, nil
}

// outcomeError turns a rejected mutation into an error. When the interpreter
// finds nothing wrong (a 2xx the caller did not expect) the status is still
// reported as an unknown response.
func outcomeError(outcome Outcome) *faults.TypedError {
	if outcome.Err != nil {
		return faults.AsTyped(outcome.Err)
	}
	if _, err := transport.InterpretResponse(outcome.Response); err != nil {
		return err
	}
	return faults.NewStatusError(
		faults.UnknownError,
		outcome.Response.StatusCode,
		fmt.Sprintf("Unknown Response\nHTTP status code: %d", outcome.Response.StatusCode),
	)
}

func unsupported(operation string) *faults.TypedError {
	return faults.NewTypedError(
		faults.ValidationError,
		fmt.Sprintf("%s is not supported for this resource", operation),
		nil,
	)
}

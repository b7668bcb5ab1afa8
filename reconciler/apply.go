package reconciler

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/metrics"
	"github.com/crmarques/harborsync/resource"
	"github.com/crmarques/harborsync/transport"
)

// Reconcilable is implemented by every resource kind. New kinds plug in by
// implementing it; Reconcile itself never branches on the kind.
type Reconcilable interface {
	// Kind names the resource type, e.g. "project".
	Kind() string
	// Name identifies the resource instance for logs.
	Name() string
	Fetch(ctx context.Context, client transport.Client) (resource.Object, error)
	BuildDesiredPayload() (resource.Object, error)
	IgnoredFieldPaths() []resource.FieldPath
	CreateRequest(ctx context.Context, client transport.Client, desired resource.Object) (transport.Request, error)
	UpdateRequest(existing resource.Object, desired resource.Object) (transport.Request, error)
	DeleteRequest(existing resource.Object) (transport.Request, error)
}

const tracerName = "github.com/crmarques/harborsync/reconciler"

type Reconciler struct {
	client  transport.Client
	metrics *metrics.Recorder
	tracer  trace.Tracer
}

type Option func(*Reconciler)

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(r *Reconciler) {
		r.metrics = recorder
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(r *Reconciler) {
		if provider != nil {
			r.tracer = provider.Tracer(tracerName)
		}
	}
}

func New(client transport.Client, opts ...Option) *Reconciler {
	r := &Reconciler{client: client, tracer: noop.NewTracerProvider().Tracer(tracerName)}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

func (r *Reconciler) Client() transport.Client {
	return r.client
}

// Apply reconciles item toward target using the reconciler's client.
func (r *Reconciler) Apply(ctx context.Context, item Reconcilable, target State, dryRun bool) Result {
	started := time.Now()
	log := logr.FromContextOrDiscard(ctx).WithValues("kind", item.Kind(), "name", item.Name())
	ctx = logr.NewContext(ctx, log)
	ctx, span := r.tracer.Start(ctx, "reconcile "+item.Kind(), trace.WithAttributes(
		attribute.String("harborsync.kind", item.Kind()),
		attribute.String("harborsync.name", item.Name()),
		attribute.String("harborsync.state", string(target)),
		attribute.Bool("harborsync.dry_run", dryRun),
	))
	defer span.End()

	result := r.apply(ctx, item, target, dryRun)

	r.metrics.ObserveReconcile(item.Kind(), string(result.Action), result.outcome(), time.Since(started))
	span.SetAttributes(
		attribute.String("harborsync.action", string(result.Action)),
		attribute.Bool("harborsync.changed", result.Changed),
	)
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
		log.Error(result.Err, "reconcile failed", "action", result.Action)
	} else {
		log.Info("reconciled", "action", result.Action, "changed", result.Changed, "dryRun", dryRun)
	}
	return result
}

func (r *Reconciler) apply(ctx context.Context, item Reconcilable, target State, dryRun bool) Result {
	var desired resource.Object
	if target == StatePresent {
		payload, err := item.BuildDesiredPayload()
		if err != nil {
			return Result{Action: ActionNone, Err: faults.AsTyped(err)}
		}
		desired = payload
	}

	ops := Operations{
		Lookup: func(ctx context.Context) (resource.Object, error) {
			return item.Fetch(ctx, r.client)
		},
		Create: func(ctx context.Context, payload resource.Object) Outcome {
			request, err := item.CreateRequest(ctx, r.client, payload)
			return r.execute(ctx, request, err)
		},
		Update: func(ctx context.Context, existing resource.Object, payload resource.Object) Outcome {
			request, err := item.UpdateRequest(existing, payload)
			return r.execute(ctx, request, err)
		},
		Delete: func(ctx context.Context, existing resource.Object) Outcome {
			request, err := item.DeleteRequest(existing)
			return r.execute(ctx, request, err)
		},
	}

	return Reconcile(ctx, ops, desired, item.IgnoredFieldPaths(), target, dryRun)
}

func (r *Reconciler) execute(ctx context.Context, request transport.Request, buildErr error) Outcome {
	if buildErr != nil {
		return Outcome{Err: buildErr}
	}
	response := r.client.Do(ctx, request)
	return Outcome{Response: response, OK: request.Succeeded(response)}
}

// Unsupported is returned by kinds for operations the remote API does not
// offer for them.
func Unsupported(kind string, operation string) error {
	return faults.NewTypedError(
		faults.ValidationError,
		kind+" does not support "+operation,
		nil,
	)
}

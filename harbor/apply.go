// Package harbor implements the Harbor resource kinds (projects, their
// quotas and registries) on top of the generic reconciler.
package harbor

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/quota"
	"github.com/crmarques/harborsync/reconciler"
	"github.com/crmarques/harborsync/resource"
)

// ApplyProject reconciles a project and, when the project already existed
// and a quota is requested, its storage quota. New projects get their quota
// through storage_limit at creation time.
func ApplyProject(
	ctx context.Context,
	r *reconciler.Reconciler,
	options ProjectOptions,
	target reconciler.State,
	dryRun bool,
) reconciler.Result {
	project, err := NewProject(options)
	if err != nil {
		return reconciler.Result{Action: reconciler.ActionNone, Err: faults.AsTyped(err)}
	}

	result := r.Apply(ctx, project, target, dryRun)
	if target != reconciler.StatePresent || options.QuotaGB == nil || result.Err != nil {
		return result
	}
	if result.Action != reconciler.ActionNone && result.Action != reconciler.ActionUpdate {
		return result
	}

	projectID, err := objectID(result.Resource, "project_id")
	if err != nil {
		result.Err = faults.AsTyped(err)
		return result
	}

	logr.FromContextOrDiscard(ctx).V(1).Info(
		"reconciling project quota",
		"project", options.Name,
		"storage", quota.Humanize(quota.ToBaseUnits(*options.QuotaGB)),
	)
	quotaResult := r.Apply(ctx, &Quota{
		ProjectName: options.Name,
		ReferenceID: projectID,
		StorageGB:   *options.QuotaGB,
	}, reconciler.StatePresent, dryRun)

	return foldQuota(result, quotaResult)
}

// foldQuota merges a quota reconciliation into its project result. The
// quota's diff is nested under "quota".
func foldQuota(project reconciler.Result, quotaResult reconciler.Result) reconciler.Result {
	if quotaResult.Changed {
		project.Changed = true
		if project.Action == reconciler.ActionNone {
			project.Action = reconciler.ActionUpdate
		}
	}
	if project.Err == nil && quotaResult.Err != nil {
		project.Err = quotaResult.Err
	}
	if quotaResult.Diff == nil {
		return project
	}

	folded := reconciler.Diff{}
	if project.Diff != nil {
		folded.Before = resource.CloneObject(project.Diff.Before)
		folded.After = resource.CloneObject(project.Diff.After)
		folded.Entries = append(folded.Entries, project.Diff.Entries...)
	}
	folded.Before = withKey(folded.Before, "quota", quotaResult.Diff.Before)
	folded.After = withKey(folded.After, "quota", quotaResult.Diff.After)
	for _, entry := range quotaResult.Diff.Entries {
		entry.Path = "/quota" + entry.Path
		folded.Entries = append(folded.Entries, entry)
	}
	project.Diff = &folded
	return project
}

func withKey(obj resource.Object, key string, value resource.Object) resource.Object {
	if obj == nil {
		obj = resource.Object{}
	}
	if value != nil {
		obj[key] = value
	}
	return obj
}

func ApplyRegistry(
	ctx context.Context,
	r *reconciler.Reconciler,
	options RegistryOptions,
	target reconciler.State,
	dryRun bool,
) reconciler.Result {
	registry, err := NewRegistry(options, target)
	if err != nil {
		return reconciler.Result{Action: reconciler.ActionNone, Err: faults.AsTyped(err)}
	}
	return r.Apply(ctx, registry, target, dryRun)
}

package harbor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/crmarques/harborsync/config"
	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/reconciler"
)

const DefaultParallelism = 4

// ItemResult is the outcome of one manifest entry.
type ItemResult struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Name   string            `json:"name" yaml:"name"`
	State  reconciler.State  `json:"state" yaml:"state"`
	Result reconciler.Result `json:"result" yaml:"result"`
}

type manifestItem struct {
	name  string
	state reconciler.State
	apply func(ctx context.Context) reconciler.Result
}

// ApplyManifest reconciles every entry of manifest. Registries go first
// because projects may name one as their proxy cache. Entries of a group run
// concurrently, at most parallel at a time. Invalid entries fail the whole
// manifest before any request is sent; reconcile failures are reported per
// item.
func ApplyManifest(
	ctx context.Context,
	r *reconciler.Reconciler,
	manifest config.Manifest,
	dryRun bool,
	parallel int,
) ([]ItemResult, error) {
	registries, err := registryItems(r, manifest.Registries, dryRun)
	if err != nil {
		return nil, err
	}
	projects, err := projectItems(r, manifest.Projects, dryRun)
	if err != nil {
		return nil, err
	}

	results := make([]ItemResult, 0, len(registries)+len(projects))
	results = append(results, applyGroup(ctx, KindRegistry, registries, parallel)...)
	results = append(results, applyGroup(ctx, KindProject, projects, parallel)...)
	return results, nil
}

// FirstError returns the first item error, if any.
func FirstError(results []ItemResult) error {
	for _, item := range results {
		if item.Result.Err != nil {
			return item.Result.Err
		}
	}
	return nil
}

func registryItems(r *reconciler.Reconciler, entries []config.RegistryManifest, dryRun bool) ([]manifestItem, error) {
	items := make([]manifestItem, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		state, err := reconciler.ParseState(entry.State)
		if err != nil {
			return nil, err
		}
		options := RegistryOptions{
			Name:         entry.Name,
			Type:         entry.Type,
			EndpointURL:  entry.EndpointURL,
			AccessKey:    entry.AccessKey,
			AccessSecret: entry.AccessSecret,
			Insecure:     entry.Insecure,
		}
		if err := options.Validate(state); err != nil {
			return nil, err
		}
		if err := markSeen(seen, KindRegistry, entry.Name); err != nil {
			return nil, err
		}

		items = append(items, manifestItem{
			name:  entry.Name,
			state: state,
			apply: func(ctx context.Context) reconciler.Result {
				return ApplyRegistry(ctx, r, options, state, dryRun)
			},
		})
	}
	return items, nil
}

func projectItems(r *reconciler.Reconciler, entries []config.ProjectManifest, dryRun bool) ([]manifestItem, error) {
	items := make([]manifestItem, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		state, err := reconciler.ParseState(entry.State)
		if err != nil {
			return nil, err
		}
		options := ProjectOptions{
			Name:          entry.Name,
			Public:        entry.Public,
			AutoScan:      entry.AutoScan,
			ContentTrust:  entry.ContentTrust,
			QuotaGB:       entry.QuotaGB,
			CacheRegistry: entry.CacheRegistry,
		}
		if err := options.Validate(); err != nil {
			return nil, err
		}
		if err := markSeen(seen, KindProject, entry.Name); err != nil {
			return nil, err
		}

		items = append(items, manifestItem{
			name:  entry.Name,
			state: state,
			apply: func(ctx context.Context) reconciler.Result {
				return ApplyProject(ctx, r, options, state, dryRun)
			},
		})
	}
	return items, nil
}

// Two entries for the same name would race on one remote resource.
func markSeen(seen map[string]struct{}, kind string, name string) error {
	if _, exists := seen[name]; exists {
		return faults.NewTypedError(
			faults.ValidationError,
			fmt.Sprintf("manifest lists %s %q more than once", kind, name),
			nil,
		)
	}
	seen[name] = struct{}{}
	return nil
}

func applyGroup(ctx context.Context, kind string, items []manifestItem, parallel int) []ItemResult {
	if parallel <= 0 {
		parallel = DefaultParallelism
	}

	results := make([]ItemResult, len(items))
	var group errgroup.Group
	group.SetLimit(parallel)
	for idx, item := range items {
		group.Go(func() error {
			results[idx] = ItemResult{
				Kind:   kind,
				Name:   item.name,
				State:  item.state,
				Result: item.apply(ctx),
			}
			return nil
		})
	}
	_ = group.Wait()
	return results
}

package harbor

import (
	"context"
	"net/http"
	"testing"

	"github.com/crmarques/harborsync/config"
	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/reconciler"
)

func TestApplyManifestAppliesRegistriesFirst(t *testing.T) {
	t.Parallel()

	fake := newFakeHarbor()
	fake.addProject("legacy", nil, -1)
	r := fake.start(t)

	manifest := config.Manifest{
		Projects: []config.ProjectManifest{
			{Name: "proxy", CacheRegistry: stringPtr("dockerhub")},
			{Name: "library", Public: boolPtr(true)},
			{Name: "legacy", State: "absent"},
		},
		Registries: []config.RegistryManifest{
			{Name: "dockerhub", Type: stringPtr("docker-hub"), EndpointURL: stringPtr("https://hub.docker.com")},
		},
	}

	results, err := ApplyManifest(context.Background(), r, manifest, false, 2)
	if err != nil {
		t.Fatalf("ApplyManifest returned error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected four results, got %#v", results)
	}
	if results[0].Kind != KindRegistry || results[0].Name != "dockerhub" {
		t.Fatalf("expected registry first, got %#v", results[0])
	}
	for _, item := range results {
		if item.Result.Err != nil || !item.Result.Changed {
			t.Fatalf("expected %s %q to change, got %#v", item.Kind, item.Name, item.Result)
		}
	}
	if results[3].State != reconciler.StateAbsent || results[3].Result.Action != reconciler.ActionDelete {
		t.Fatalf("unexpected legacy result %#v", results[3])
	}
	if err := FirstError(results); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if fake.count(http.MethodPost, "projects") != 2 {
		t.Fatalf("expected two project creations, got %v", fake.requestLog())
	}
}

func TestApplyManifestReportsItemFailures(t *testing.T) {
	t.Parallel()

	fake := newFakeHarbor()
	r := fake.start(t)

	results, err := ApplyManifest(context.Background(), r, config.Manifest{
		Projects: []config.ProjectManifest{
			{Name: "proxy", CacheRegistry: stringPtr("missing")},
			{Name: "library"},
		},
	}, false, 0)
	if err != nil {
		t.Fatalf("ApplyManifest returned error: %v", err)
	}
	if results[0].Result.Err == nil || results[1].Result.Err != nil {
		t.Fatalf("expected only the first item to fail, got %#v", results)
	}
	if !faults.IsCategory(FirstError(results), faults.ValidationError) {
		t.Fatalf("expected first error to be the missing registry, got %v", FirstError(results))
	}
}

func TestApplyManifestRejectsInvalidEntriesUpFront(t *testing.T) {
	t.Parallel()

	cases := map[string]config.Manifest{
		"duplicate_project": {Projects: []config.ProjectManifest{{Name: "a"}, {Name: "a"}}},
		"duplicate_registry": {Registries: []config.RegistryManifest{
			{Name: "r", State: "absent"},
			{Name: "r", State: "absent"},
		}},
		"invalid_state":    {Projects: []config.ProjectManifest{{Name: "a", State: "gone"}}},
		"invalid_registry": {Registries: []config.RegistryManifest{{Name: "r"}}},
	}
	for name, manifest := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fake := newFakeHarbor()
			r := fake.start(t)

			_, err := ApplyManifest(context.Background(), r, manifest, false, 1)
			if !faults.IsCategory(err, faults.ValidationError) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(fake.requestLog()) != 0 {
				t.Fatalf("no request expected, got %v", fake.requestLog())
			}
		})
	}
}

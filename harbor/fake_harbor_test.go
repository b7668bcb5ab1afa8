package harbor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/crmarques/harborsync/config"
	httptransport "github.com/crmarques/harborsync/internal/providers/transport/http"
	"github.com/crmarques/harborsync/reconciler"
)

const apiPrefix = "/api/v2.0"

// fakeHarbor keeps projects, quotas and registries in memory and answers the
// subset of the Harbor v2 API the kinds use. Name filters are substring
// matches, like Harbor's.
type fakeHarbor struct {
	mu         sync.Mutex
	nextID     int64
	clock      int
	projects   map[int64]map[string]any
	quotas     map[int64]map[string]any
	registries map[int64]map[string]any
	requests   []string
	bodies     map[string][]map[string]any
	failures   map[string]int
}

func newFakeHarbor() *fakeHarbor {
	return &fakeHarbor{
		projects:   map[int64]map[string]any{},
		quotas:     map[int64]map[string]any{},
		registries: map[int64]map[string]any{},
		bodies:     map[string][]map[string]any{},
		failures:   map[string]int{},
	}
}

// start serves the fake and returns a reconciler talking to it.
func (f *fakeHarbor) start(t *testing.T) *reconciler.Reconciler {
	t.Helper()

	server := httptest.NewServer(f)
	t.Cleanup(server.Close)

	client, err := httptransport.NewClient(config.Server{
		APIURL: server.URL + apiPrefix,
		Auth:   &config.Auth{BasicAuth: &config.BasicAuth{Username: "admin", Password: "Harbor12345"}},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return reconciler.New(client)
}

func (f *fakeHarbor) failNext(method string, collection string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+collection] = status
}

func (f *fakeHarbor) addProject(name string, metadata map[string]any, storage int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createProjectLocked(name, metadata, storage, 0)
}

func (f *fakeHarbor) addRegistry(name string, registryType string, url string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.registries[f.nextID] = map[string]any{
		"id":       f.nextID,
		"name":     name,
		"type":     registryType,
		"url":      url,
		"insecure": false,
		"credential": map[string]any{
			"type":          "basic",
			"access_key":    "robot",
			"access_secret": "*****",
		},
		"update_time": f.tick(),
	}
	return f.nextID
}

func (f *fakeHarbor) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeHarbor) count(method string, collection string) int {
	total := 0
	for _, entry := range f.requestLog() {
		if strings.HasPrefix(entry, method+" "+apiPrefix+"/"+collection) {
			total++
		}
	}
	return total
}

func (f *fakeHarbor) lastBody(method string, collection string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	bodies := f.bodies[method+" "+collection]
	if len(bodies) == 0 {
		return nil
	}
	return bodies[len(bodies)-1]
}

func (f *fakeHarbor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if _, _, ok := r.BasicAuth(); !ok {
		writeErrors(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	segments := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, apiPrefix), "/"), "/")
	collection := segments[0]

	var body map[string]any
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
		decoder := json.NewDecoder(r.Body)
		decoder.UseNumber()
		if err := decoder.Decode(&body); err != nil {
			writeErrors(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body")
			return
		}
		f.bodies[r.Method+" "+collection] = append(f.bodies[r.Method+" "+collection], body)
	}

	if status, ok := f.failures[r.Method+" "+collection]; ok {
		delete(f.failures, r.Method+" "+collection)
		writeErrors(w, status, "INJECTED", fmt.Sprintf("injected %d", status))
		return
	}

	var id int64
	if len(segments) > 1 {
		parsed, err := strconv.ParseInt(segments[1], 10, 64)
		if err != nil {
			writeErrors(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id")
			return
		}
		id = parsed
	}

	switch collection {
	case "projects":
		f.serveProjects(w, r, id, body)
	case "quotas":
		f.serveQuotas(w, r, id, body)
	case "registries":
		f.serveRegistries(w, r, id, body)
	case "systeminfo":
		writeJSON(w, http.StatusOK, map[string]any{"harbor_version": "v2.11.0-abc123", "auth_mode": "db_auth"})
	default:
		writeErrors(w, http.StatusNotFound, "NOT_FOUND", "no such resource")
	}
}

func (f *fakeHarbor) serveProjects(w http.ResponseWriter, r *http.Request, id int64, body map[string]any) {
	switch {
	case r.Method == http.MethodGet && id == 0:
		writeList(w, r, f.projects, r.URL.Query().Get("name"))
	case r.Method == http.MethodPost:
		name, _ := body["project_name"].(string)
		for _, existing := range f.projects {
			if existing["name"] == name {
				writeErrors(w, http.StatusConflict, "CONFLICT", fmt.Sprintf("The project named %s already exists", name))
				return
			}
		}
		metadata, _ := body["metadata"].(map[string]any)
		storage := int64(-1)
		if limit, ok := body["storage_limit"].(json.Number); ok {
			storage, _ = limit.Int64()
		}
		var registryID int64
		if value, ok := body["registry_id"].(json.Number); ok {
			registryID, _ = value.Int64()
		}
		f.createProjectLocked(name, metadata, storage, registryID)
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodPut:
		project, ok := f.projects[id]
		if !ok {
			writeErrors(w, http.StatusNotFound, "NOT_FOUND", "project not found")
			return
		}
		if metadata, ok := body["metadata"].(map[string]any); ok {
			current := project["metadata"].(map[string]any)
			for key, value := range metadata {
				current[key] = value
			}
		}
		project["update_time"] = f.tick()
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		if _, ok := f.projects[id]; !ok {
			writeErrors(w, http.StatusNotFound, "NOT_FOUND", "project not found")
			return
		}
		delete(f.projects, id)
		for quotaID, quota := range f.quotas {
			if quota["ref"].(map[string]any)["id"] == id {
				delete(f.quotas, quotaID)
			}
		}
		w.WriteHeader(http.StatusOK)
	default:
		writeErrors(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (f *fakeHarbor) serveQuotas(w http.ResponseWriter, r *http.Request, id int64, body map[string]any) {
	switch {
	case r.Method == http.MethodGet && id == 0:
		referenceID, _ := strconv.ParseInt(r.URL.Query().Get("reference_id"), 10, 64)
		matches := make([]any, 0)
		for _, quota := range sortedValues(f.quotas) {
			if quota["ref"].(map[string]any)["id"] == referenceID {
				matches = append(matches, quota)
			}
		}
		writeJSON(w, http.StatusOK, matches)
	case r.Method == http.MethodPut:
		quota, ok := f.quotas[id]
		if !ok {
			writeErrors(w, http.StatusNotFound, "NOT_FOUND", "quota not found")
			return
		}
		hard, _ := body["hard"].(map[string]any)
		storage, _ := hard["storage"].(json.Number).Int64()
		quota["hard"] = map[string]any{"storage": storage}
		quota["update_time"] = f.tick()
		w.WriteHeader(http.StatusOK)
	default:
		writeErrors(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (f *fakeHarbor) serveRegistries(w http.ResponseWriter, r *http.Request, id int64, body map[string]any) {
	switch {
	case r.Method == http.MethodGet && id == 0:
		writeList(w, r, f.registries, strings.TrimPrefix(r.URL.Query().Get("q"), "name="))
	case r.Method == http.MethodGet:
		registry, ok := f.registries[id]
		if !ok {
			writeErrors(w, http.StatusNotFound, "NOT_FOUND", "registry not found")
			return
		}
		writeJSON(w, http.StatusOK, registry)
	case r.Method == http.MethodPost:
		f.nextID++
		registry := map[string]any{"id": f.nextID, "insecure": false}
		applyRegistryBody(registry, body)
		registry["update_time"] = f.tick()
		f.registries[f.nextID] = registry
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodPut:
		registry, ok := f.registries[id]
		if !ok {
			writeErrors(w, http.StatusNotFound, "NOT_FOUND", "registry not found")
			return
		}
		applyRegistryBody(registry, body)
		registry["update_time"] = f.tick()
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(f.registries, id)
		w.WriteHeader(http.StatusOK)
	default:
		writeErrors(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (f *fakeHarbor) createProjectLocked(name string, metadata map[string]any, storage int64, registryID int64) int64 {
	f.nextID++
	projectID := f.nextID
	projectMetadata := map[string]any{"public": "false"}
	for key, value := range metadata {
		projectMetadata[key] = value
	}
	f.projects[projectID] = map[string]any{
		"project_id":  projectID,
		"name":        name,
		"metadata":    projectMetadata,
		"registry_id": registryID,
		"update_time": f.tick(),
	}

	f.nextID++
	f.quotas[f.nextID] = map[string]any{
		"id":          f.nextID,
		"ref":         map[string]any{"id": projectID, "name": name},
		"hard":        map[string]any{"storage": storage},
		"used":        map[string]any{"storage": int64(0)},
		"update_time": f.tick(),
	}
	return projectID
}

func (f *fakeHarbor) tick() string {
	f.clock++
	return fmt.Sprintf("2026-01-01T00:00:%02dZ", f.clock)
}

func applyRegistryBody(registry map[string]any, body map[string]any) {
	for _, key := range []string{"name", "type", "url", "insecure"} {
		if value, ok := body[key]; ok {
			registry[key] = value
		}
	}
	if credential, ok := body["credential"].(map[string]any); ok {
		stored := map[string]any{"type": "basic"}
		if key, ok := credential["access_key"]; ok {
			stored["access_key"] = key
		}
		if _, ok := credential["access_secret"]; ok {
			stored["access_secret"] = "*****"
		}
		registry["credential"] = stored
	}
}

func writeList(w http.ResponseWriter, r *http.Request, items map[int64]map[string]any, nameFilter string) {
	matches := make([]any, 0)
	for _, item := range sortedValues(items) {
		if strings.Contains(item["name"].(string), nameFilter) {
			matches = append(matches, item)
		}
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	start := min((page-1)*size, len(matches))
	end := min(start+size, len(matches))
	writeJSON(w, http.StatusOK, matches[start:end])
}

func sortedValues(items map[int64]map[string]any) []map[string]any {
	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	values := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, items[id])
	}
	return values
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeErrors(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"errors": []any{map[string]any{"code": code, "message": message}},
	})
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/crmarques/harborsync/config"
	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/internal/cli/common"
	"github.com/crmarques/harborsync/internal/cli/testkit"
	"github.com/crmarques/harborsync/transport"
)

// stubHarbor answers project and registry lookups from fixed lists and
// records every mutating request.
type stubHarbor struct {
	mu         sync.Mutex
	projects   []map[string]any
	registries []map[string]any
	writes     []transport.Request
	server     config.Server
}

func (s *stubHarbor) Do(_ context.Context, request transport.Request) transport.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	if request.Method != http.MethodGet {
		s.writes = append(s.writes, request)
		switch request.Method {
		case http.MethodPost:
			return transport.Response{StatusCode: http.StatusCreated}
		default:
			return transport.Response{StatusCode: http.StatusOK}
		}
	}

	if request.Path == "/systeminfo" {
		return transport.Response{StatusCode: http.StatusOK, Body: []byte(`{"harbor_version":"v2.11.0","auth_mode":"db_auth"}`)}
	}

	var list []map[string]any
	switch request.Path {
	case "/projects":
		list = s.projects
	case "/registries":
		list = s.registries
	case "/quotas":
		list = []map[string]any{}
	}
	encoded, _ := json.Marshal(list)
	return transport.Response{StatusCode: http.StatusOK, Body: encoded}
}

func (s *stubHarbor) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func run(t *testing.T, stub *stubHarbor, stdin string, args ...string) testkit.Result {
	t.Helper()
	return runWithTraceOutput(t, stub, stdin, nil, args...)
}

func runWithTraceOutput(t *testing.T, stub *stubHarbor, stdin string, traceOutput io.Writer, args ...string) testkit.Result {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  api-url: https://harbor.example.com/api/v2.0\n  auth:\n    basic-auth:\n      username: admin\n      password: Harbor12345\n"
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	deps := Dependencies{
		NewClient: func(server config.Server, _ common.Telemetry) (transport.Client, error) {
			stub.mu.Lock()
			stub.server = server
			stub.mu.Unlock()
			return stub, nil
		},
		LookupEnv: func(string) (string, bool) { return "", false },
		Stdin:     strings.NewReader(stdin),
		Stderr:    traceOutput,
	}

	return testkit.Execute(NewRootCommand(deps), stdin, append([]string{"--config", configPath}, args...)...)
}

func TestProjectCheckReportsDiffWithoutWriting(t *testing.T) {
	t.Parallel()

	stub := &stubHarbor{projects: []map[string]any{{
		"project_id": 7,
		"name":       "library",
		"metadata":   map[string]any{"public": "false", "auto_scan": "true"},
	}}}

	result := run(t, stub, "", "project", "--name", "library", "--public", "--check")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v (stderr %s)", result.Err, result.Stderr)
	}
	if !strings.Contains(result.Stdout, `project "library": changed (update)`) {
		t.Fatalf("unexpected output:\n%s", result.Stdout)
	}
	if !strings.Contains(result.Stdout, `+     "public": "true"`) {
		t.Fatalf("expected rendered diff, got:\n%s", result.Stdout)
	}
	if stub.writeCount() != 0 {
		t.Fatalf("check mode must not write, got %#v", stub.writes)
	}
}

func TestProjectOmittedBooleanFlagsAreNotDesired(t *testing.T) {
	t.Parallel()

	stub := &stubHarbor{projects: []map[string]any{{
		"project_id": 7,
		"name":       "library",
		"metadata":   map[string]any{"public": "true", "auto_scan": "true"},
	}}}

	result := run(t, stub, "", "project", "--name", "library", "--auto-scan=true")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !strings.Contains(result.Stdout, `project "library": unchanged`) || stub.writeCount() != 0 {
		t.Fatalf("expected unchanged project, got %q and %#v", result.Stdout, stub.writes)
	}
}

func TestProjectCreateSendsOnlyGivenOptions(t *testing.T) {
	t.Parallel()

	stub := &stubHarbor{}
	result := run(t, stub, "", "project", "--name", "fresh", "--content-trust=false", "--quota-gb", "-1", "-o", "json")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if stub.writeCount() != 1 {
		t.Fatalf("expected one create, got %#v", stub.writes)
	}

	body := stub.writes[0].Body.(map[string]any)
	metadata := body["metadata"].(map[string]any)
	if len(metadata) != 1 || metadata["enable_content_trust"] != "false" {
		t.Fatalf("unexpected metadata %#v", metadata)
	}
	if body["storage_limit"] != int64(-1) {
		t.Fatalf("unexpected storage limit %#v", body["storage_limit"])
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(result.Stdout), &items); err != nil {
		t.Fatalf("expected json output, got %q: %v", result.Stdout, err)
	}
	if items[0]["kind"] != "project" {
		t.Fatalf("unexpected json item %#v", items[0])
	}
}

func TestRegistryValidationFailsBeforeAnyRequest(t *testing.T) {
	t.Parallel()

	stub := &stubHarbor{}
	result := run(t, stub, "", "registry", "--name", "mirror", "--type", "docker-registry")
	if ExitCodeForError(result.Err) != 2 {
		t.Fatalf("expected validation exit code, got %v", result.Err)
	}
	if stub.server.APIURL != "" {
		t.Fatal("the client must not be built for invalid options")
	}
}

func TestApplyManifestFromStdin(t *testing.T) {
	t.Parallel()

	stub := &stubHarbor{}
	manifest := `
registries:
  - name: dockerhub
    type: docker-hub
    endpoint-url: https://hub.docker.com
projects:
  - name: library
    public: true
`
	result := run(t, stub, manifest, "apply", "-f", "-", "--check")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v (stderr %s)", result.Err, result.Stderr)
	}
	registryLine := strings.Index(result.Stdout, `registry "dockerhub": changed (create)`)
	projectLine := strings.Index(result.Stdout, `project "library": changed (create)`)
	if registryLine < 0 || projectLine < 0 || registryLine > projectLine {
		t.Fatalf("unexpected output:\n%s", result.Stdout)
	}
	if stub.writeCount() != 0 {
		t.Fatalf("check mode must not write, got %#v", stub.writes)
	}
}

func TestGlobalFlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	stub := &stubHarbor{}
	result := run(t, stub, "",
		"--api-url", "https://other.example.com/api/v2.0",
		"--password", "override",
		"--insecure-skip-verify",
		"project", "--name", "library", "--check",
	)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if stub.server.APIURL != "https://other.example.com/api/v2.0" {
		t.Fatalf("unexpected api url %q", stub.server.APIURL)
	}
	if stub.server.Auth.BasicAuth.Username != "admin" || stub.server.Auth.BasicAuth.Password != "override" {
		t.Fatalf("unexpected credentials %#v", stub.server.Auth.BasicAuth)
	}
	if stub.server.TLS == nil || !stub.server.TLS.InsecureSkipVerify {
		t.Fatalf("expected insecure tls, got %#v", stub.server.TLS)
	}
}

func TestMetricsTextfileIsWritten(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "harborsync.prom")
	stub := &stubHarbor{}
	result := run(t, stub, "", "--metrics-textfile", path, "registry", "--name", "old", "--state", "absent")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(content), `harborsync_reconcile_total{action="none",kind="registry",outcome="unchanged"} 1`) {
		t.Fatalf("unexpected metrics:\n%s", content)
	}
}

func TestVerboseAndDebugWriteToStderr(t *testing.T) {
	t.Parallel()

	stub := &stubHarbor{}
	result := run(t, stub, "", "--verbose", "--debug", "registry", "--name", "old", "--state", "absent")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !strings.Contains(result.Stderr, "debug: root flags") {
		t.Fatalf("expected debug trace, got %q", result.Stderr)
	}
	if !strings.Contains(result.Stderr, `"msg"="reconciled"`) {
		t.Fatalf("expected reconcile log, got %q", result.Stderr)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	t.Parallel()

	result := run(t, &stubHarbor{}, "", "-o", "table", "version")
	if ExitCodeForError(result.Err) != 2 {
		t.Fatalf("expected validation error, got %v", result.Err)
	}
}

func TestVersionJSON(t *testing.T) {
	t.Parallel()

	result := run(t, &stubHarbor{}, "", "version", "-o", "json")
	if result.Err != nil || !strings.Contains(result.Stdout, `"version": "dev"`) {
		t.Fatalf("unexpected version output %q (%v)", result.Stdout, result.Err)
	}
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "untyped", err: errors.New("boom"), want: 1},
		{name: "validation", err: faults.NewTypedError(faults.ValidationError, "bad", nil), want: 2},
		{name: "api", err: faults.NewStatusError(faults.APIError, 409, "conflict"), want: 3},
		{name: "network", err: faults.NewTypedError(faults.NetworkError, "request failed", nil), want: 4},
		{name: "decode", err: faults.NewTypedError(faults.DecodeError, "not json", nil), want: 5},
		{name: "unknown", err: faults.NewStatusError(faults.UnknownError, 418, "teapot"), want: 1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			if got := ExitCodeForError(testCase.err); got != testCase.want {
				t.Fatalf("ExitCodeForError(%v) = %d, want %d", testCase.err, got, testCase.want)
			}
		})
	}
}

func TestTextOnlyCommandsRejectStructuredOutput(t *testing.T) {
	t.Parallel()

	result := run(t, &stubHarbor{}, "", "-o", "json", "completion", "bash")
	if ExitCodeForError(result.Err) != 2 {
		t.Fatalf("expected validation error, got %v", result.Err)
	}

	result = run(t, &stubHarbor{}, "", "completion", "bash")
	if result.Err != nil || !strings.Contains(result.Stdout, "harborsync") {
		t.Fatalf("unexpected completion output %q (%v)", result.Stdout, result.Err)
	}
}

func TestMetricsTextfileRequiresHarborCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "harborsync.prom")
	result := run(t, &stubHarbor{}, "", "--metrics-textfile", path, "version")
	if ExitCodeForError(result.Err) != 2 {
		t.Fatalf("expected validation error, got %v", result.Err)
	}
}

func TestEveryCommandHasHelp(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(Dependencies{})
	paths := testkit.RegisteredPaths(root, nil)
	if len(paths) == 0 {
		t.Fatal("expected registered commands")
	}
	for _, path := range paths {
		command, _, err := root.Find(path)
		if err != nil {
			t.Fatalf("find %v: %v", path, err)
		}
		if strings.TrimSpace(command.Short) == "" {
			t.Fatalf("command %q has no short description", command.CommandPath())
		}
	}
}

func TestConfigShowMasksPassword(t *testing.T) {
	t.Parallel()

	result := run(t, &stubHarbor{}, "", "config", "show")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if strings.Contains(result.Stdout, "Harbor12345") || !strings.Contains(result.Stdout, "********") {
		t.Fatalf("unexpected config output:\n%s", result.Stdout)
	}
	if !strings.Contains(result.Stdout, "api-url: https://harbor.example.com/api/v2.0") {
		t.Fatalf("expected api url in output:\n%s", result.Stdout)
	}
}

func TestConfigCheckReportsHarborVersion(t *testing.T) {
	t.Parallel()

	result := run(t, &stubHarbor{}, "", "config", "check")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if strings.TrimSpace(result.Stdout) != "harbor v2.11.0 reachable at https://harbor.example.com/api/v2.0" {
		t.Fatalf("unexpected check output %q", result.Stdout)
	}
}

func TestConfigPrintTemplateDecodes(t *testing.T) {
	t.Parallel()

	result := run(t, &stubHarbor{}, "", "config", "print-template")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	cfg, err := config.Decode([]byte(result.Stdout))
	if err != nil {
		t.Fatalf("template must decode: %v", err)
	}
	if cfg.Server.APIURL != "https://harbor.example.com/api/v2.0" {
		t.Fatalf("unexpected template api url %q", cfg.Server.APIURL)
	}
}

func TestStdoutTraceExporterWritesSpans(t *testing.T) {
	t.Parallel()

	spans := &bytes.Buffer{}
	result := runWithTraceOutput(t, &stubHarbor{}, "", spans, "--trace-exporter", "stdout", "registry", "--name", "old", "--state", "absent")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !strings.Contains(spans.String(), `"Name":"reconcile registry"`) {
		t.Fatalf("expected reconcile span, got %q", spans.String())
	}
}

func TestInvalidTraceExporter(t *testing.T) {
	t.Parallel()

	result := run(t, &stubHarbor{}, "", "--trace-exporter", "zipkin", "registry", "--name", "old", "--state", "absent")
	if ExitCodeForError(result.Err) != 2 {
		t.Fatalf("expected validation error, got %v", result.Err)
	}
}

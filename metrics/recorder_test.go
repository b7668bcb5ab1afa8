package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder()
	recorder.ObserveReconcile("project", "update", "changed", 20*time.Millisecond)
	recorder.ObserveReconcile("project", "update", "changed", 10*time.Millisecond)
	recorder.ObserveReconcile("registry", "none", "unchanged", time.Millisecond)
	recorder.ObserveRequest("GET", "200")

	if got := testutil.ToFloat64(recorder.outcomes.WithLabelValues("project", "update", "changed")); got != 2 {
		t.Fatalf("expected 2 project updates, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.requests.WithLabelValues("GET", "200")); got != 1 {
		t.Fatalf("expected 1 GET request, got %v", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	t.Parallel()

	var recorder *Recorder
	recorder.ObserveReconcile("project", "create", "changed", time.Second)
	recorder.ObserveRequest("POST", "201")
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder()
	recorder.ObserveReconcile("registry", "delete", "changed", time.Millisecond)

	path := filepath.Join(t.TempDir(), "harborsync.prom")
	if err := recorder.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile returned error: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(content), `harborsync_reconcile_total{action="delete",kind="registry",outcome="changed"} 1`) {
		t.Fatalf("unexpected textfile content:\n%s", content)
	}
}

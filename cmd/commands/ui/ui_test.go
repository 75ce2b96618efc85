package ui

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stopro/roster/cmd/commands/cmdutil/cmdtest"
	"stopro/roster/internal/api/apitest"
	"stopro/roster/internal/observability"
)

func TestMetricsMux_ServesCollectors(t *testing.T) {
	observability.Recorder{}.ObserveOutcome("delete_student", "armed")

	rec := httptest.NewRecorder()
	metricsMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "roster_pending_actions_total") {
		t.Errorf("expected the pending-action counter in:\n%s", rec.Body.String())
	}
}

func TestMetricsMux_OnlyMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	metricsMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUI_RequiresTerminal(t *testing.T) {
	srv := apitest.NewServer(t)
	cmdtest.Setup(t, srv)

	_, stderr, err := cmdtest.Exec(t, NewCommand())
	if err == nil || !strings.Contains(stderr, "needs a terminal") {
		t.Errorf("expected terminal error, got err=%v stderr=%s", err, stderr)
	}
}

func TestListenMetrics_BusyPortFailsFast(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer busy.Close()

	ln, err := listenMetrics(busy.Addr().String())
	if err == nil {
		ln.Close()
		t.Fatal("expected an error for a port in use")
	}
	if !strings.Contains(err.Error(), "metrics server") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestListenMetrics_ServesOnBoundAddress(t *testing.T) {
	ln, err := listenMetrics("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listenMetrics: %v", err)
	}
	srv := &http.Server{Handler: metricsMux()}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_ObserveOutcome(t *testing.T) {
	counter := PendingActions().WithLabelValues("delete_student", "finalized")
	before := testutil.ToFloat64(counter)

	var r Recorder
	r.ObserveOutcome("delete_student", "finalized")
	r.ObserveOutcome("delete_student", "finalized")

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("expected counter delta 2, got %v", got)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	var r Recorder
	r.ObserveOutcome("delete_group", "undone")
	r.ObserveRequest("GET", "200", 0.04)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, name := range []string{"roster_pending_actions_total", "roster_api_request_seconds"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in scrape output", name)
		}
	}
}

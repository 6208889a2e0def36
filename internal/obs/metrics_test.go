package obs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gestaozabele/zeladoria/internal/occurrence"
)

func TestRecorderCounters(t *testing.T) {
	m := New()

	m.OccurrenceCreated("1")
	m.OccurrenceCreated("1")
	m.TransitionApplied(occurrence.TransitionForward, occurrence.StatusCreated, occurrence.StatusForwarded)
	m.TransitionRejected(occurrence.TransitionComplete, "forbidden")

	if got := testutil.ToFloat64(m.created.WithLabelValues("1")); got != 2 {
		t.Fatalf("expected 2 created, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("forward", "created", "forwarded")); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.rejected.WithLabelValues("complete", "forbidden")); got != 1 {
		t.Fatalf("expected 1 rejection, got %v", got)
	}
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/occurrences/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/metrics", m.Handler().ServeHTTP)

	for _, id := range []string{"a", "b"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/occurrences/"+id, nil))
	}

	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/occurrences/{id}", "404")); got != 2 {
		t.Fatalf("expected 2 requests on pattern, got %v", got)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Fatalf("metrics endpoint missing counters: %d", rr.Code)
	}
}

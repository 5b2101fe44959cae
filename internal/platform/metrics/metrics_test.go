package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCountsAIRequests(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveAIRequest("enhance", OutcomeSuccess)
	r.ObserveAIRequest("enhance", OutcomeSuccess)
	r.ObserveAIRequest("enhance", OutcomeRateLimited)

	if got := testutil.ToFloat64(r.aiRequests.WithLabelValues("enhance", OutcomeSuccess)); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(r.aiRequests.WithLabelValues("enhance", OutcomeRateLimited)); got != 1 {
		t.Fatalf("expected 1 rate limited, got %v", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.ObserveAIRequest("bio", OutcomeSuccess)
	r.ObserveUpstream("bio", time.Second)
	r.UsageLogFailed()
	r.SlugProbed()
}

func TestHandlerExposesCollectors(t *testing.T) {
	t.Parallel()

	r := New()
	r.SlugProbed()
	r.UsageLogFailed()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{"folio_slug_probes_total 1", "folio_ai_usage_log_failures_total 1"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %q in metrics output", name)
		}
	}
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFollowUpsProcessedIncrementsPerKind(t *testing.T) {
	reg := New()
	reg.FollowUpsProcessed.WithLabelValues("REENGAGE_30M").Inc()
	reg.FollowUpsProcessed.WithLabelValues("REENGAGE_30M").Inc()
	reg.FollowUpsProcessed.WithLabelValues("NURTURE").Inc()

	got := testutil.ToFloat64(reg.FollowUpsProcessed.WithLabelValues("REENGAGE_30M"))
	if got != 2 {
		t.Errorf("got %v, want 2", got)
	}
}

func TestCRMSyncFailuresIsASingleCounter(t *testing.T) {
	reg := New()
	reg.CRMSyncFailures.Inc()
	reg.CRMSyncFailures.Inc()
	reg.CRMSyncFailures.Inc()

	if got := testutil.ToFloat64(reg.CRMSyncFailures); got != 3 {
		t.Errorf("got %v, want 3", got)
	}
}

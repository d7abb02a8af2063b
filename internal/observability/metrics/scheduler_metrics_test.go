package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/brightleaf/glsync/internal/glerr"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "network_transient",
			err:  fmt.Errorf("pos timeout: %w", glerr.ErrNetworkTransient),
			want: SchedulerJobReasonNetworkTransient,
		},
		{
			name: "config_missing",
			err:  glerr.ErrConfigMissing,
			want: SchedulerJobReasonConfigMissing,
		},
		{
			name: "invariant",
			err:  glerr.ErrInvariantViolation,
			want: SchedulerJobReasonInvariant,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestIsSchedulerErrorRetryable(t *testing.T) {
	if !IsSchedulerErrorRetryable(glerr.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable to be retryable")
	}
	if IsSchedulerErrorRetryable(glerr.ErrParse) {
		t.Fatalf("expected parse error to not be retryable")
	}
}

func TestAddStoresProcessed(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "glsync",
		Environment: "test",
	})

	metrics.AddStoresProcessed("gl-export", 3)

	got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("gl-export"))
	if got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
}

func TestIncJobDeferred(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{ServiceName: "glsync", Environment: "test"})

	metrics.IncJobDeferred("gl-export", SchedulerBatchDeferredReasonLockHeld)

	got := testutil.ToFloat64(metrics.batchDeferred.WithLabelValues("gl-export", SchedulerBatchDeferredReasonLockHeld))
	if got != 1 {
		t.Fatalf("expected deferred count 1, got %v", got)
	}
}

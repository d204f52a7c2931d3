// SPDX-License-Identifier: MPL-2.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDefault_ReturnsSameInstance(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() should return the same collectors on every call")
	}
}

func TestCollectors_Count(t *testing.T) {
	c := Default()

	before := testutil.ToFloat64(c.PreviewsReused)
	c.PreviewsReused.Inc()
	if got := testutil.ToFloat64(c.PreviewsReused); got != before+1 {
		t.Errorf("PreviewsReused = %v, want %v", got, before+1)
	}

	c.TrackedContainers.Set(3)
	if got := testutil.ToFloat64(c.TrackedContainers); got != 3 {
		t.Errorf("TrackedContainers = %v, want 3", got)
	}

	c.PreviewsStarted.WithLabelValues("next").Inc()
	if got := testutil.ToFloat64(c.PreviewsStarted.WithLabelValues("next")); got < 1 {
		t.Errorf("PreviewsStarted{framework=next} = %v, want >= 1", got)
	}
}

func TestHandler_NotNil(t *testing.T) {
	if Handler() == nil {
		t.Error("Handler() returned nil")
	}
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRegisterAndIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.IncBookingCreated("strict")
	m.IncBookingConflict()
	m.SetOnlineUsers(3)

	if got := testutil.ToFloat64(m.BookingsCreated.WithLabelValues("strict")); got != 1 {
		t.Errorf("bookings created = %v", got)
	}
	if got := testutil.ToFloat64(m.OnlineUsers); got != 3 {
		t.Errorf("online users = %v", got)
	}
	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Errorf("gather: %d %v", n, err)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IncEmail("ok")
	m.ObserveRequest("/", "GET", "200", 0.1)
	m.SetOnlineUsers(1)
}

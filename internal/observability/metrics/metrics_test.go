package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveBooking("success", 0.02)
	m.ObserveBooking("error", 0.5)
	m.ObserveCancellation("success")
	m.WSClientConnected()
	m.WSClientDisconnected()
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking("success", 0.1)
	m.ObserveCancellation("error")
	m.WSClientConnected()
	m.WSClientDisconnected()
}

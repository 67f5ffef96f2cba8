// Package metrics exposes the relay's counters and gauges as Prometheus
// series, grounded on the sibling signaling server's metrics package: one
// package-level registry, plain prometheus.Counter/Gauge fields, an Init
// that registers them, and a Handler for the internal metrics listener.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reg = prometheus.NewRegistry()

	RoomsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_rooms_created_total", Help: "Total rooms created.",
	})
	RoomsDestroyed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_rooms_destroyed_total", Help: "Total rooms destroyed.",
	})
	RoomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_rooms_active", Help: "Current rooms in the registry.",
	})
	Connections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_connections_total", Help: "Total admitted connections.",
	})
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_rate_limited_total", Help: "Total admissions rejected by the rate limiter.",
	})
	InvalidRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_invalid_requests_total", Help: "Total control requests rejected as invalid (unparseable or unknown type).",
	})
	PeersJoined = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_peers_joined_total", Help: "Total receivers paired with a sender.",
	})
	TTLEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_ttl_evictions_total", Help: "Total rooms closed by the sweeper for exceeding TTL.",
	})
)

// Init registers every series with the internal registry. Call once at
// startup before serving Handler.
func Init() {
	reg.MustRegister(
		RoomsCreated,
		RoomsDestroyed,
		RoomsActive,
		Connections,
		RateLimited,
		InvalidRequests,
		PeersJoined,
		TTLEvictions,
	)
}

// Handler serves the registry in Prometheus text exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

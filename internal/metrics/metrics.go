package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CeibaRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ceiba_requests_total",
		Help: "Requests issued to the CEIBA backend by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	TopologyCacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topology_cache_events_total",
		Help: "Topology cache lookups by result.",
	}, []string{"result"})
)

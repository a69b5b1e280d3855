// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors recorded by the service and interceptors.
type Metrics struct {
	registry *prometheus.Registry

	RPCRequests        *prometheus.CounterVec
	RPCDuration        *prometheus.HistogramVec
	Summaries          prometheus.Counter
	UnassignedItems    prometheus.Histogram
	SettlementsPerCall prometheus.Histogram
	StoreWrites        *prometheus.CounterVec
	Extractions        *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitbill",
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "splitbill",
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		Summaries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitbill",
			Name:      "summaries_total",
			Help:      "Allocation and settlement runs.",
		}),
		UnassignedItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "splitbill",
			Name:      "unassigned_items",
			Help:      "Unassigned items seen per summary.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25},
		}),
		SettlementsPerCall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "splitbill",
			Name:      "settlements_per_summary",
			Help:      "Transfers suggested per summary.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		StoreWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitbill",
			Name:      "store_writes_total",
			Help:      "Session snapshot writes by result.",
		}, []string{"result"}),
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitbill",
			Name:      "receipt_extractions_total",
			Help:      "Receipt extraction calls by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.RPCRequests,
		m.RPCDuration,
		m.Summaries,
		m.UnassignedItems,
		m.SettlementsPerCall,
		m.StoreWrites,
		m.Extractions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Result turns an error into the "ok"/"error" label used by the counters.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

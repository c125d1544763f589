// Package metrics counts board synchronization outcomes with Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type SyncMetrics struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	merged   *prometheus.GaugeVec
}

func NewSyncMetrics() *SyncMetrics {
	m := &SyncMetrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chanspy",
			Subsystem: "board_sync",
			Name:      "outcomes_total",
			Help:      "Board list loads by site and outcome.",
		}, []string{"site", "outcome"}),
		merged: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "chanspy",
			Subsystem: "board_sync",
			Name:      "merged_boards",
			Help:      "Boards merged by the last successful load of a site.",
		}, []string{"site"}),
	}
	m.registry.MustRegister(m.outcomes, m.merged)
	return m
}

func (m *SyncMetrics) RecordOutcome(site, outcome string) {
	m.outcomes.WithLabelValues(site, outcome).Inc()
}

func (m *SyncMetrics) SetMergedBoards(site string, n int) {
	m.merged.WithLabelValues(site).Set(float64(n))
}

func (m *SyncMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the current values in the node_exporter textfile
// format.
func (m *SyncMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/azure/ai-content-detector/internal/analysis"
	"github.com/azure/ai-content-detector/internal/models"
)

var (
	// AnalysesTotal counts finished analyses by modality and terminal state
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_analyses_total",
			Help: "Total number of analyses by modality and terminal state",
		},
		[]string{"modality", "state"},
	)

	// AnalysisFailures counts failed or rejected analyses by error kind
	AnalysisFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_analysis_failures_total",
			Help: "Total number of failed analyses by modality and error kind",
		},
		[]string{"modality", "kind"},
	)

	// AnalysisLatency tracks end-to-end analysis latency, backend call included
	AnalysisLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "detector_analysis_latency_seconds",
			Help:    "Latency of analyses by modality",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		},
		[]string{"modality"},
	)

	// Verdicts counts completed analyses by modality and verdict
	Verdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_verdicts_total",
			Help: "Total number of completed analyses by modality and verdict",
		},
		[]string{"modality", "verdict"},
	)

	// AlertsSent counts alerts handed to the notification service
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_alerts_total",
			Help: "Total number of alerts by delivery status",
		},
		[]string{"status"},
	)
)

// init creates a zero series for every modality and failure kind so rates are defined before the first failure
func init() {
	for _, m := range models.Modalities {
		for _, kind := range analysis.Kinds {
			AnalysisFailures.WithLabelValues(string(m), string(kind))
		}
	}
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion pipeline Prometheus metrics.
var (
	PipelineStagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfchat",
			Name:      "pipeline_stages_total",
			Help:      "Pipeline stage completions by outcome",
		},
		[]string{"stage", "outcome"},
	)

	PipelineChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfchat",
			Name:      "pipeline_chunks_total",
			Help:      "Chunks processed by the embed-store stage",
		},
		[]string{"outcome"},
	)

	PipelineDocumentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfchat",
			Name:      "pipeline_document_duration_seconds",
			Help:      "End-to-end document ingestion duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineStagesTotal)
	prometheus.MustRegister(PipelineChunksTotal)
	prometheus.MustRegister(PipelineDocumentDuration)
	pipelineMetricsRegistered = true
}

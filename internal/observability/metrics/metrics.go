package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for the dialogue engine.
// All observers are safe on a nil receiver so wiring stays optional in tests.
type EngineMetrics struct {
	intentDetections   *prometheus.CounterVec
	classifications    *prometheus.CounterVec
	extractions        *prometheus.CounterVec
	responses          *prometheus.CounterVec
	aiLatency          *prometheus.HistogramVec
	aiCostUSD          *prometheus.CounterVec
	processingDuration *prometheus.HistogramVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		intentDetections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atendezap",
			Subsystem: "dialogue",
			Name:      "intent_detections_total",
			Help:      "Deterministic business intent detections by primary intent",
		}, []string{"intent"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atendezap",
			Subsystem: "dialogue",
			Name:      "message_classifications_total",
			Help:      "Conversational classifications by message intent type",
		}, []string{"type"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atendezap",
			Subsystem: "dialogue",
			Name:      "name_extractions_total",
			Help:      "Name/gender extractions by layer and outcome",
		}, []string{"layer", "outcome"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atendezap",
			Subsystem: "dialogue",
			Name:      "contextual_responses_total",
			Help:      "Contextual responses by branch label",
		}, []string{"detected_intent"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atendezap",
			Subsystem: "dialogue",
			Name:      "ai_extraction_latency_seconds",
			Help:      "Latency of Layer-2 AI extraction calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model"}),
		aiCostUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atendezap",
			Subsystem: "dialogue",
			Name:      "ai_cost_usd_total",
			Help:      "Accumulated USD cost of Layer-2 AI extraction calls",
		}, []string{"model"}),
		processingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atendezap",
			Subsystem: "dialogue",
			Name:      "message_processing_seconds",
			Help:      "End-to-end processing time per inbound message",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.intentDetections, m.classifications, m.extractions,
		m.responses, m.aiLatency, m.aiCostUSD, m.processingDuration,
	)
	return m
}

func (m *EngineMetrics) ObserveIntentDetection(intent string) {
	if m == nil {
		return
	}
	m.intentDetections.WithLabelValues(intent).Inc()
}

func (m *EngineMetrics) ObserveClassification(intentType string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(intentType).Inc()
}

func (m *EngineMetrics) ObserveExtraction(layer, outcome string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(layer, outcome).Inc()
}

func (m *EngineMetrics) ObserveResponse(detectedIntent string) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(detectedIntent).Inc()
}

func (m *EngineMetrics) ObserveAICall(model string, costUSD float64, seconds float64) {
	if m == nil {
		return
	}
	m.aiLatency.WithLabelValues(model).Observe(seconds)
	m.aiCostUSD.WithLabelValues(model).Add(costUSD)
}

func (m *EngineMetrics) ObserveProcessing(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.processingDuration.WithLabelValues(stage).Observe(seconds)
}

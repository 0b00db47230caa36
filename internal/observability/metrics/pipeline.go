package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// Pipeline records classification pipeline outcomes. It satisfies
// ports.PipelineObserver and ocr.Observer.
type Pipeline struct {
	service string

	extractionTotal    *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	ocrTotal           *prometheus.CounterVec
	ocrDuration        prometheus.Histogram
	classifyTotal      *prometheus.CounterVec
	classifyDuration   prometheus.Histogram
	confidence         *prometheus.HistogramVec
	failureTotal       *prometheus.CounterVec
}

func NewPipeline(service string, registry prometheus.Registerer) *Pipeline {
	extractionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "total",
			Help:      "Text extractions by format, method and status.",
		},
		[]string{"service", "format", "method", "status"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Text extraction duration in seconds by format.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "format"},
	)
	ocrTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ocr",
			Name:      "invocations_total",
			Help:      "OCR stage invocations by outcome.",
		},
		[]string{"service", "outcome"},
	)
	ocrDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "ocr",
			Name:        "duration_seconds",
			Help:        "OCR stage duration in seconds.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	classifyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "total",
			Help:      "Successful classifications by label.",
		},
		[]string{"service", "label"},
	)
	classifyDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "classification",
			Name:        "duration_seconds",
			Help:        "Tokenize and inference duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	confidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "confidence",
			Help:      "Softmax probability of the winning label.",
			Buckets:   []float64{0.25, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 0.99},
		},
		[]string{"service", "label"},
	)
	failureTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "failures_total",
			Help:      "Rejected classification requests by error kind.",
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		extractionTotal,
		extractionDuration,
		ocrTotal,
		ocrDuration,
		classifyTotal,
		classifyDuration,
		confidence,
		failureTotal,
	)

	return &Pipeline{
		service:            service,
		extractionTotal:    extractionTotal,
		extractionDuration: extractionDuration,
		ocrTotal:           ocrTotal,
		ocrDuration:        ocrDuration,
		classifyTotal:      classifyTotal,
		classifyDuration:   classifyDuration,
		confidence:         confidence,
		failureTotal:       failureTotal,
	}
}

func (p *Pipeline) ObserveExtraction(ext string, extraction domain.Extraction, duration time.Duration) {
	method := extraction.Method
	if method == "" {
		method = "none"
	}
	p.extractionTotal.WithLabelValues(p.service, ext, method, extraction.Status.String()).Inc()
	p.extractionDuration.WithLabelValues(p.service, ext).Observe(duration.Seconds())
}

func (p *Pipeline) ObserveClassification(result domain.Classification, duration time.Duration) {
	label := string(result.Label)
	p.classifyTotal.WithLabelValues(p.service, label).Inc()
	p.classifyDuration.Observe(duration.Seconds())
	p.confidence.WithLabelValues(p.service, label).Observe(result.Confidence)
}

func (p *Pipeline) ObserveFailure(kind domain.ErrorKind) {
	p.failureTotal.WithLabelValues(p.service, string(kind)).Inc()
}

func (p *Pipeline) ObserveOCR(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	p.ocrTotal.WithLabelValues(p.service, outcome).Inc()
	p.ocrDuration.Observe(duration.Seconds())
}

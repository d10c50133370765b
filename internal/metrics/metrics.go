package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textextractor",
			Name:      "jobs_processed_total",
			Help:      "Total extraction jobs by result (success, failed, dlq, cancelled)",
		},
		[]string{"result"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "textextractor",
			Name:      "job_duration_seconds",
			Help:      "End-to-end extraction job duration by source (upload, url, s3, local)",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	fragmentsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textextractor",
			Name:      "fragments_extracted_total",
			Help:      "Total text fragments extracted, by engine",
		},
		[]string{"engine"},
	)

	pagesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "textextractor",
			Name:      "pages_processed_total",
			Help:      "Total PDF pages processed",
		},
	)

	retriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "textextractor",
			Name:      "retries_total",
			Help:      "Total number of job retries",
		},
	)

	exportArtifacts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textextractor",
			Name:      "export_artifacts_total",
			Help:      "Result files written, by format",
		},
		[]string{"format"},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "textextractor",
			Name:      "queue_depth",
			Help:      "Queue depth gauges for stream, delayed and dlq",
		},
		[]string{"type"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(jobsProcessed, jobDuration, fragmentsExtracted,
		pagesProcessed, retriesTotal, exportArtifacts, queueDepth)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveJob(source, result string, dur time.Duration) {
	jobsProcessed.WithLabelValues(result).Inc()
	jobDuration.WithLabelValues(source).Observe(dur.Seconds())
}

func AddFragments(engine string, n int) {
	fragmentsExtracted.WithLabelValues(engine).Add(float64(n))
}

func AddPages(n int) { pagesProcessed.Add(float64(n)) }

func IncRetry() { retriesTotal.Inc() }

func IncArtifact(format string) { exportArtifacts.WithLabelValues(format).Inc() }

func SetQueueDepth(kind string, v int64) { queueDepth.WithLabelValues(kind).Set(float64(v)) }

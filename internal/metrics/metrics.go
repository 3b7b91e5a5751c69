package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "uploads_total",
		Help:      "Total uploads handled, by terminal status.",
	}, []string{"status"})

	UploadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ingest",
		Name:      "upload_duration_seconds",
		Help:      "Duration of a connection handler's full pipeline, by terminal status.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"status"})

	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ingest",
		Name:      "active_connections",
		Help:      "Number of connection handlers currently executing.",
	})

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ingest",
		Name:      "queue_depth",
		Help:      "Current number of video handles held in the bounded queue.",
	})

	QueueCapacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ingest",
		Name:      "queue_capacity",
		Help:      "Configured fixed capacity of the bounded queue.",
	})

	QueueRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "queue_rejections_total",
		Help:      "Total number of offers rejected because the bounded queue was full.",
	})

	TranscodeJobsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "transcode_jobs_total",
		Help:      "Total number of MaybeCompress invocations of the transcoder.",
	})

	TranscodeFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "transcode_failures_total",
		Help:      "Total transcoder failures, by failure mode.",
	}, []string{"reason"})

	TranscodeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ingest",
		Name:      "transcode_duration_seconds",
		Help:      "Wall-clock duration of ffmpeg subprocess invocations.",
		Buckets:   []float64{1, 5, 10, 30, 60, 90, 120},
	})

	HashLockTableSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ingest",
		Name:      "hash_lock_table_size",
		Help:      "Number of distinct content hashes the hash-lock table has seen.",
	})

	BytesReceivedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ingest",
		Name:      "bytes_received_total",
		Help:      "Total bytes received from producers across all connections.",
	})
)

// Register registers every ingest metric with reg. Call once at startup,
// before the acceptor begins serving.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		UploadsTotal,
		UploadDuration,
		ActiveConnections,
		QueueDepth,
		QueueCapacity,
		QueueRejectionsTotal,
		TranscodeJobsTotal,
		TranscodeFailuresTotal,
		TranscodeDuration,
		HashLockTableSize,
		BytesReceivedTotal,
	)
}

package tgfs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects refresher and filesystem counters.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	mediaFailures   prometheus.Counter
	carriedFolders  prometheus.Counter
	generation      prometheus.Gauge
	conversations   prometheus.Gauge
	files           prometheus.Gauge
	cachedBytes     prometheus.Gauge
	operations      *prometheus.CounterVec
}

// NewMetrics registers the tgfs collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgfs_refresh_total",
				Help: "Total number of cache refresh cycles",
			},
			[]string{"status"},
		),
		refreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tgfs_refresh_duration_seconds",
				Help:    "Time to rebuild the cache from Telegram",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
		),
		mediaFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tgfs_media_failures_total",
				Help: "Media items skipped because their download failed",
			},
		),
		carriedFolders: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tgfs_carried_folders_total",
				Help: "Conversations served from the previous generation after a listing failure",
			},
		),
		generation: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tgfs_generation",
				Help: "Sequence number of the generation being served",
			},
		),
		conversations: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tgfs_conversations",
				Help: "Number of conversation directories being served",
			},
		),
		files: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tgfs_files",
				Help: "Number of media files being served",
			},
		),
		cachedBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tgfs_cached_bytes",
				Help: "Payload bytes held in memory by the served generation",
			},
		),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgfs_fs_operations_total",
				Help: "Filesystem operations served, by operation and result",
			},
			[]string{"op", "result"},
		),
	}
}

func (m *Metrics) refreshSucceeded(gen *Generation, took time.Duration) {
	if m == nil {
		return
	}
	folders, files, size := gen.Stats()
	m.refreshes.WithLabelValues("success").Inc()
	m.refreshDuration.Observe(took.Seconds())
	m.generation.Set(float64(gen.Seq))
	m.conversations.Set(float64(folders))
	m.files.Set(float64(files))
	m.cachedBytes.Set(float64(size))
}

func (m *Metrics) refreshFailed(took time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues("failed").Inc()
	m.refreshDuration.Observe(took.Seconds())
}

func (m *Metrics) mediaFailed() {
	if m == nil {
		return
	}
	m.mediaFailures.Inc()
}

func (m *Metrics) folderCarried() {
	if m == nil {
		return
	}
	m.carriedFolders.Inc()
}

func (m *Metrics) operation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "not_found"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

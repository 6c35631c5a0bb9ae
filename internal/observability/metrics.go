package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpDurationHistogram  *prometheus.HistogramVec
	ledgerImbalanceCounter *prometheus.CounterVec
	ledgerPostingCounter   *prometheus.CounterVec
	idempotencyCounter     *prometheus.CounterVec
	pendingQueueGauge      *prometheus.GaugeVec
	decisionCounter        *prometheus.CounterVec
	workerRunCounter       *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		ledgerImbalanceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_imbalance_total",
			Help: "Users whose stored balance diverged from their ledger entries",
		}, []string{"scope"})

		ledgerPostingCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_postings_total",
			Help: "Committed ledger entries by kind",
		}, []string{"kind"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		pendingQueueGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "admin_pending_queue_size",
			Help: "Records waiting for an admin decision",
		}, []string{"record"})

		decisionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_decisions_total",
			Help: "Admin decisions on deposits and withdrawals",
		}, []string{"record", "decision", "result"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			ledgerImbalanceCounter,
			ledgerPostingCounter,
			idempotencyCounter,
			pendingQueueGauge,
			decisionCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementLedgerImbalance(scope string) {
	if ledgerImbalanceCounter == nil {
		return
	}
	ledgerImbalanceCounter.WithLabelValues(scope).Inc()
}

func IncrementLedgerPosting(kind string) {
	if ledgerPostingCounter == nil || kind == "" {
		return
	}
	ledgerPostingCounter.WithLabelValues(kind).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func SetPendingQueueSize(record string, size int64) {
	if pendingQueueGauge == nil {
		return
	}
	pendingQueueGauge.WithLabelValues(record).Set(float64(size))
}

func IncrementDecision(record, decision, result string) {
	if decisionCounter == nil {
		return
	}
	decisionCounter.WithLabelValues(record, decision, result).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}

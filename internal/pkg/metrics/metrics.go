package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約試行の総数（status: committed, sold_out, duplicate, failed, not_found）
	ReservationAttemptsTotal *prometheus.CounterVec

	// キャンセルの総数（status: cancelled, noop, failed）
	CancellationsTotal *prometheus.CounterVec

	// 座席台帳操作のレイテンシ（operation: try_decrement/increment, status）
	LedgerOpDuration *prometheus.HistogramVec

	// 補償クレジットの再試行回数（status: success, retry, gave_up）
	CompensationRetriesTotal *prometheus.CounterVec

	// 補償キューの滞留タスク数
	CompensationQueueDepth prometheus.Gauge

	// 照合ジョブが修正した残席数の総量
	ReconciliationCorrectionsTotal prometheus.Counter

	// 検出された台帳不変条件違反の総数。0以外は即調査対象
	InvariantViolationsTotal prometheus.Counter
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ReservationAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_attempts_total",
				Help: "Total number of reservation attempts by outcome",
			},
			[]string{"status"},
		),
		CancellationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_cancellations_total",
				Help: "Total number of reservation cancellations by outcome",
			},
			[]string{"status"},
		),
		LedgerOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seat_ledger_operation_duration_seconds",
				Help:    "Time spent on seat ledger operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		CompensationRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compensation_retries_total",
				Help: "Total number of compensation credit retries by outcome",
			},
			[]string{"status"},
		),
		CompensationQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "compensation_queue_depth",
				Help: "Number of pending compensation credit tasks",
			},
		),
		ReconciliationCorrectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reconciliation_corrections_total",
				Help: "Total seats corrected by the reconciliation job",
			},
		),
		InvariantViolationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seat_ledger_invariant_violations_total",
				Help: "Total detected seat ledger invariant violations",
			},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationAttemptsTotal,
		m.CancellationsTotal,
		m.LedgerOpDuration,
		m.CompensationRetriesTotal,
		m.CompensationQueueDepth,
		m.ReconciliationCorrectionsTotal,
		m.InvariantViolationsTotal,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}

// ObserveLedgerOp は座席台帳操作の所要時間を記録する
// メトリクス未初期化（単体テスト等）の場合は何もしない
func ObserveLedgerOp(operation, status string, d time.Duration) {
	if defaultMetrics == nil {
		return
	}
	defaultMetrics.LedgerOpDuration.WithLabelValues(operation, status).Observe(d.Seconds())
	if status == "invariant_violation" {
		defaultMetrics.InvariantViolationsTotal.Inc()
	}
}

// CountReservationAttempt は予約試行の結果を記録する
func CountReservationAttempt(status string) {
	if defaultMetrics == nil {
		return
	}
	defaultMetrics.ReservationAttemptsTotal.WithLabelValues(status).Inc()
}

// CountCancellation はキャンセルの結果を記録する
func CountCancellation(status string) {
	if defaultMetrics == nil {
		return
	}
	defaultMetrics.CancellationsTotal.WithLabelValues(status).Inc()
}

// CountCompensationRetry は補償クレジット再試行の結果を記録する
func CountCompensationRetry(status string) {
	if defaultMetrics == nil {
		return
	}
	defaultMetrics.CompensationRetriesTotal.WithLabelValues(status).Inc()
}

// AddReconciliationCorrections は照合ジョブが修正した残席数を記録する
func AddReconciliationCorrections(seats int) {
	if defaultMetrics == nil {
		return
	}
	defaultMetrics.ReconciliationCorrectionsTotal.Add(float64(seats))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 座席予約の試行数（isolation, outcome）
	BookingAttemptsTotal *prometheus.CounterVec

	// 送金の試行数（outcome）
	TransfersTotal *prometheus.CounterVec

	// トランザクションの所要時間（operation, isolation, result）
	TransactionDuration *prometheus.HistogramVec

	// 監査で検出した不変条件違反（kind: seat, balance_sum）
	InvariantViolations *prometheus.GaugeVec
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
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		BookingAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_attempts_total",
				Help: "Total number of seat booking attempts by isolation level and outcome",
			},
			[]string{"isolation", "outcome"},
		),
		TransfersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfers_total",
				Help: "Total number of fund transfer attempts by outcome",
			},
			[]string{"outcome"},
		),
		TransactionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transaction_duration_seconds",
				Help:    "Time a database transaction stayed open",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15, 30},
			},
			[]string{"operation", "isolation", "result"},
		),
		InvariantViolations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "invariant_violations",
				Help: "Invariant violations found by the last audit (1 = violated)",
			},
			[]string{"kind"},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingAttemptsTotal,
		m.TransfersTotal,
		m.TransactionDuration,
		m.InvariantViolations,
	)

	return m
}

// NewNop はどこにも登録しないメトリクスを返す（テストやメトリクス無効時用）
func NewNop() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

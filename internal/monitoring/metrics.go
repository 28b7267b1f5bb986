package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Total number of backtest runs by outcome",
		},
		[]string{"symbol", "status"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Wall-clock duration of backtest runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	tradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_trades_closed_total",
			Help: "Closed trades produced across runs",
		},
		[]string{"symbol"},
	)

	sizingRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_sizing_rejections_total",
			Help: "Entries skipped because position sizing was rejected",
		},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDuration)
	prometheus.MustRegister(tradesClosed)
	prometheus.MustRegister(sizingRejections)
}

// Handler returns the Prometheus metrics endpoint, useful for watching
// long parameter sweeps.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRun records one finished run and its outcome ("ok" or "error").
func RecordRun(symbol, status string, seconds float64) {
	runsTotal.WithLabelValues(symbol, status).Inc()
	runDuration.WithLabelValues(symbol).Observe(seconds)
}

// RecordTrades adds the number of closed trades a run produced.
func RecordTrades(symbol string, n int) {
	tradesClosed.WithLabelValues(symbol).Add(float64(n))
}

// RecordSizingRejections adds the number of sizing warnings a run produced.
func RecordSizingRejections(symbol string, n int) {
	sizingRejections.WithLabelValues(symbol).Add(float64(n))
}

package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the trading coordinator and exchange port.

var pairIterationLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "tradebot",
		Subsystem: "coordinator",
		Name:      "pair_iteration_seconds",
		Help:      "Time to process one pair within one loop iteration.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"pair"},
)

var iterationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tradebot",
		Subsystem: "coordinator",
		Name:      "iterations_total",
		Help:      "Total number of main loop iterations completed.",
	},
)

var tradesOpenedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradebot",
		Subsystem: "coordinator",
		Name:      "trades_opened_total",
		Help:      "Total number of trades opened, by pair.",
	},
	[]string{"pair"},
)

var tradesClosedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradebot",
		Subsystem: "coordinator",
		Name:      "trades_closed_total",
		Help:      "Total number of trades closed, by pair and exit reason.",
	},
	[]string{"pair", "exit_reason"},
)

var protectionVetoTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradebot",
		Subsystem: "coordinator",
		Name:      "protection_veto_total",
		Help:      "Total number of entries/exits vetoed by the protection pipeline.",
	},
	[]string{"scope"}, // global, pair
)

var pairErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradebot",
		Subsystem: "coordinator",
		Name:      "pair_errors_total",
		Help:      "Total number of per-pair errors swallowed during an iteration.",
	},
	[]string{"pair"},
)

var openTradesGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tradebot",
		Subsystem: "coordinator",
		Name:      "open_trades",
		Help:      "Current number of open trades across all pairs.",
	},
)

var botStatusGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "tradebot",
		Subsystem: "coordinator",
		Name:      "status",
		Help:      "Coordinator status (1=current, 0=not current), labeled by status name.",
	},
	[]string{"status"},
)

var exchangeRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradebot",
		Subsystem: "exchange",
		Name:      "requests_total",
		Help:      "Total number of exchange port calls, by operation and result.",
	},
	[]string{"operation", "result"},
)

func recordIteration() { iterationsTotal.Inc() }

func recordPairError(pair string) { pairErrorsTotal.WithLabelValues(pair).Inc() }

func recordTradeOpened(pair string) { tradesOpenedTotal.WithLabelValues(pair).Inc() }

func recordTradeClosed(pair, exitReason string) {
	tradesClosedTotal.WithLabelValues(pair, exitReason).Inc()
}

func recordProtectionVeto(scope string) { protectionVetoTotal.WithLabelValues(scope).Inc() }

func setOpenTrades(n int) { openTradesGauge.Set(float64(n)) }

func setBotStatus(status string, allStatuses []string) {
	for _, s := range allStatuses {
		if s == status {
			botStatusGauge.WithLabelValues(s).Set(1)
		} else {
			botStatusGauge.WithLabelValues(s).Set(0)
		}
	}
}

func recordExchangeRequest(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	exchangeRequestsTotal.WithLabelValues(operation, result).Inc()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crash"

var (
	RoundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rounds_total",
		Help:      "Settled rounds.",
	})

	CrashPoint = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "crash_point",
		Help:      "Stopping multiplier of settled rounds.",
		Buckets:   []float64{1, 1.1, 1.5, 2, 3, 5, 10, 25, 100, 1000},
	})

	BetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bets_total",
		Help:      "Accepted bets by balance mode.",
	}, []string{"mode"})

	BetRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bet_rejections_total",
		Help:      "Rejected bet and cash-out requests by error code.",
	}, []string{"op", "code"})

	CashOutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cashouts_total",
		Help:      "Successful cash-outs by balance mode.",
	}, []string{"mode"})

	BankrollAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bankroll_available",
		Help:      "Current house bankroll.",
	})

	InsolvencyAlarms = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bankroll_insolvency_alarms_total",
		Help:      "Times the bankroll went negative.",
	})

	ExposureAlarms = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bankroll_exposure_alarms_total",
		Help:      "Rounds whose live exposure exceeded what the bankroll can cover.",
	})

	BetsHalted = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bets_halted",
		Help:      "1 while bets are rejected after a persistence failure.",
	})

	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "gateway_connections",
		Help:      "Open websocket connections.",
	})
)

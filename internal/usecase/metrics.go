package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Cycles          prometheus.Counter
	CyclesSkipped   prometheus.Counter
	CycleErrors     prometheus.Counter
	FeedFailures    prometheus.Counter
	AlertsChecked   prometheus.Counter
	AlertsTriggered prometheus.Counter
	Notifications   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokentalk_engine_cycles_total",
			Help: "Completed evaluation cycles.",
		}),
		CyclesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokentalk_engine_cycles_skipped_total",
			Help: "Cycles dropped because the previous one was still running.",
		}),
		CycleErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokentalk_engine_cycle_errors_total",
			Help: "Cycles aborted by a storage or internal error.",
		}),
		FeedFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokentalk_feed_failures_total",
			Help: "Cycles skipped because the price feed was unavailable.",
		}),
		AlertsChecked: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokentalk_alerts_checked_total",
			Help: "Alerts evaluated across all cycles.",
		}),
		AlertsTriggered: factory.NewCounter(prometheus.CounterOpts{
			Name: "tokentalk_alerts_triggered_total",
			Help: "Alerts transitioned to triggered.",
		}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokentalk_notifications_total",
			Help: "Notification delivery attempts by channel and outcome.",
		}, []string{"channel", "status"}),
	}
}

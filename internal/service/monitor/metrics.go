package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	SkipQuoteUnavailable = "quote_unavailable"
	SkipPersistConflict  = "persist_conflict"
	SkipEntryGone        = "entry_gone"
)

type Metrics struct {
	TicksTotal       prometheus.Counter
	EntriesEvaluated prometheus.Counter
	EntriesSkipped   *prometheus.CounterVec
	EventsDispatched *prometheus.CounterVec
	DeliveryFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_sentinel",
			Subsystem: "monitor",
			Name:      "ticks_total",
			Help:      "The total number of completed evaluation passes",
		}),
		EntriesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_sentinel",
			Subsystem: "monitor",
			Name:      "entries_evaluated_total",
			Help:      "The total number of entries evaluated and persisted",
		}),
		EntriesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "price_sentinel",
			Subsystem: "monitor",
			Name:      "entries_skipped_total",
			Help:      "Entries skipped during a tick, by reason",
		}, []string{"reason"}),
		EventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "price_sentinel",
			Subsystem: "monitor",
			Name:      "events_dispatched_total",
			Help:      "Notification events delivered, by kind",
		}, []string{"kind"}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_sentinel",
			Subsystem: "monitor",
			Name:      "delivery_failures_total",
			Help:      "Notification deliveries that failed",
		}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.EntriesEvaluated,
		m.EntriesSkipped,
		m.EventsDispatched,
		m.DeliveryFailures,
	)
	return m
}

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	value           prometheus.Gauge
	notes           prometheus.Gauge
	reconciliations prometheus.Counter
	daysCredited    prometheus.Counter
	prompts         prometheus.Counter
	decisions       *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		value: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fibday_counter_value",
			Help: "Current day counter value.",
		}),
		notes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fibday_notes",
			Help: "Number of notes in the list as of the last note operation.",
		}),
		reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fibday_reconciliations_total",
			Help: "Activation events that ran the reconciler.",
		}),
		daysCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fibday_days_credited_total",
			Help: "Calendar days added to the counter.",
		}),
		prompts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fibday_milestone_prompts_total",
			Help: "Milestone prompts opened.",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fibday_decisions_total",
			Help: "Milestone decisions applied, by decision.",
		}, []string{"decision"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fibday_store_errors_total",
			Help: "Durable store failures, by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.value, m.notes, m.reconciliations, m.daysCredited, m.prompts, m.decisions, m.storeErrors)
	return m
}

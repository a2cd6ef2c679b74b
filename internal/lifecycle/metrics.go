package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinder_csi_operator",
			Subsystem: "lifecycle",
			Name:      "events_total",
			Help:      "Total number of dispatched lifecycle events by kind",
		},
		[]string{"event"},
	)

	appliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinder_csi_operator",
			Subsystem: "lifecycle",
			Name:      "applies_total",
			Help:      "Total number of reconciliation passes by result",
		},
		[]string{"result"},
	)

	lastApplied = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cinder_csi_operator",
			Subsystem: "lifecycle",
			Name:      "last_applied_timestamp_seconds",
			Help:      "Unix time of the last successful apply",
		},
	)

	currentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cinder_csi_operator",
			Subsystem: "lifecycle",
			Name:      "state",
			Help:      "Current operator state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)
)

var allStates = []State{StateBlocked, StateWaiting, StateApplying, StateActive, StateShuttingDown}

func init() {
	prometheus.MustRegister(eventsTotal, appliesTotal, lastApplied, currentState)
}

func recordEvent(event Event) {
	eventsTotal.WithLabelValues(string(event)).Inc()
}

func recordApply(result string) {
	appliesTotal.WithLabelValues(result).Inc()
	if result == "applied" {
		lastApplied.SetToCurrentTime()
	}
}

func recordState(state State) {
	for _, s := range allStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		currentState.WithLabelValues(string(s)).Set(value)
	}
}

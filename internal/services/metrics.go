package services

import "github.com/prometheus/client_golang/prometheus"

// Outcome label values for recordOps.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeNotFound = "not_found"
	outcomeReplayed = "replayed"
	outcomeError    = "error"
)

// recordOps counts record operations by operation and outcome. Both label
// sets are closed, so cardinality stays fixed.
var recordOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "records_operations_total",
		Help: "Total number of weight record operations by outcome.",
	},
	[]string{"operation", "outcome"},
)

func init() {
	prometheus.MustRegister(recordOps)
}

func observe(op, outcome string) {
	recordOps.WithLabelValues(op, outcome).Inc()
}

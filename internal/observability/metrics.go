package observability

import "github.com/prometheus/client_golang/prometheus"

// contactOps counts contact use-case executions by operation
// (list|get|create|update|delete) and outcome
// (ok|invalid|not_found|conflict|error).
var contactOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "contacts_operations_total",
		Help: "Total number of contact operations by outcome.",
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(contactOps)
}

// RecordContactOp increments the counter for (op, outcome).
func RecordContactOp(op, outcome string) {
	contactOps.WithLabelValues(op, outcome).Inc()
}

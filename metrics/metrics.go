// Package metrics exposes prometheus counters of the custody engine. All
// counters are registered with the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "custody_operations_total",
		Help: "Processed messages by path and result.",
	}, []string{"path", "result"})

	proposalsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "custody_proposals_executed_total",
		Help: "Proposals executed successfully.",
	})

	executorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "custody_executor_failures_total",
		Help: "Failed delegated invocations by executor.",
	}, []string{"executor"})
)

// OperationDone counts a processed message.
func OperationDone(path string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operations.WithLabelValues(path, result).Inc()
}

// ProposalExecuted counts a successful proposal execution.
func ProposalExecuted() {
	proposalsExecuted.Inc()
}

// ExecutorFailed counts a failed delegated invocation.
func ExecutorFailed(executor string) {
	executorFailures.WithLabelValues(executor).Inc()
}

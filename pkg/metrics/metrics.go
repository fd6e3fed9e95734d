package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runtimeCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_runtime_calls_total",
			Help: "Execution runtime calls issued by the gateway, by call name and outcome",
		},
		[]string{"call", "outcome"},
	)

	readStateFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_read_state_failures_total",
			Help: "Failures to open or read the local chain database snapshot",
		},
	)

	contractsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_contracts_created_total",
			Help: "Contracts created through raw transaction submission",
		},
	)
)

func init() {
	prometheus.MustRegister(runtimeCalls, readStateFailures, contractsCreated)
}

// RuntimeCallSucceeded records a successful execution runtime call
func RuntimeCallSucceeded(call string) {
	runtimeCalls.WithLabelValues(call, "succeeded").Inc()
}

// RuntimeCallFailed records a failed execution runtime call
func RuntimeCallFailed(call string) {
	runtimeCalls.WithLabelValues(call, "failed").Inc()
}

// ReadStateFailed records a failure to serve from the local snapshot
func ReadStateFailed() {
	readStateFailures.Inc()
}

// ContractCreated records a contract creation observed on raw submission
func ContractCreated() {
	contractsCreated.Inc()
}

// Handler returns the HTTP handler exposing the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

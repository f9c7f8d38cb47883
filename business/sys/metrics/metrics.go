// Package metrics declares the prometheus collectors for the prover.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockwitness_http_requests_total",
		Help: "The total number of processed http requests",
	}, []string{"method", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blockwitness_http_request_duration_seconds",
		Help:    "The duration of processed http requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	RPCTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockwitness_rpc_calls_total",
		Help: "The total number of calls made to the chain provider",
	}, []string{"method", "status"})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blockwitness_rpc_call_duration_seconds",
		Help:    "The duration of calls made to the chain provider",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	WitnessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockwitness_witnesses_total",
		Help: "The total number of block hash witnesses built",
	}, []string{"status"})

	TransactionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockwitness_transactions_total",
		Help: "The total number of oracle transactions by outcome",
	}, []string{"status"})
)

// RecordRequest increments the http request counter.
func RecordRequest(method, status string) {
	RequestTotal.WithLabelValues(method, status).Inc()
}

// ObserveRequestDuration observes the http request duration.
func ObserveRequestDuration(method string, seconds float64) {
	RequestDuration.WithLabelValues(method).Observe(seconds)
}

// RecordRPC counts a provider call and observes its duration.
func RecordRPC(method string, err error, seconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	RPCTotal.WithLabelValues(method, status).Inc()
	RPCDuration.WithLabelValues(method).Observe(seconds)
}

// RecordWitness counts a witness build by outcome.
func RecordWitness(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	WitnessTotal.WithLabelValues(status).Inc()
}

// RecordTransaction counts an oracle transaction by outcome.
func RecordTransaction(status string) {
	TransactionTotal.WithLabelValues(status).Inc()
}

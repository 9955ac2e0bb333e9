// Package metrics exposes Prometheus counters for the bridge's connection
// lifecycle and command execution. All metrics live under the "scenelink"
// namespace on the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scenelink"

var (
	// ClientsConnected counts accepted client connections.
	ClientsConnected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clients_connected_total",
		Help:      "Client connections accepted by the host listener.",
	})

	// ClientsDisconnected counts client connections that ended, for any
	// reason.
	ClientsDisconnected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clients_disconnected_total",
		Help:      "Client connections closed by the peer or the host.",
	})

	// AcceptErrors counts non-timeout accept failures.
	AcceptErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accept_errors_total",
		Help:      "Errors returned by the listener accept loop.",
	})

	// CommandsExecuted counts commands run on the host execution loop.
	CommandsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_executed_total",
		Help:      "Commands dispatched to the command executor.",
	})

	// ExecutorErrors counts commands that produced an error response,
	// including recovered executor panics.
	ExecutorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "executor_errors_total",
		Help:      "Commands whose execution ended in an error response.",
	})

	// ResponsesSent counts response frames written back to clients.
	ResponsesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "responses_sent_total",
		Help:      "Response frames successfully written to client sockets.",
	})

	// ResponseSendErrors counts responses that could not be delivered
	// because the client was already gone.
	ResponseSendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "response_send_errors_total",
		Help:      "Response writes that failed on a dead client socket.",
	})

	// HandlerDuration observes how long each client connection lived.
	HandlerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "client_handler_duration_seconds",
		Help:      "Lifetime of each per-client connection worker.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
	})
)

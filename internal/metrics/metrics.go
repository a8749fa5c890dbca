// Package metrics exposes Prometheus counters for ledger operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const OutcomeOK = "ok"

var (
	ledgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pockets",
		Name:      "ledger_operations_total",
		Help:      "Balance-affecting operations by outcome.",
	}, []string{"operation", "outcome"})

	rejectedDebits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pockets",
		Name:      "rejected_debits_total",
		Help:      "Debits refused because the pocket balance could not cover them.",
	})
)

// Observe records one operation. outcome is OutcomeOK or an error kind.
func Observe(operation, outcome string) {
	ledgerOperations.WithLabelValues(operation, outcome).Inc()
}

func RejectedDebit() {
	rejectedDebits.Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

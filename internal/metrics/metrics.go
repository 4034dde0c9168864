// Package metrics holds the Prometheus collectors of the portal service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DocumentOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "portal", Name: "document_operations_total", Help: "Document store operations by operation and result."},
		[]string{"op", "result"},
	)
	AuthChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "portal", Name: "auth_checks_total", Help: "Session gate evaluations by result."},
		[]string{"result"},
	)
	RateLimitAllowed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "portal", Name: "rate_limit_allowed_total", Help: "Number of requests admitted by the rate limiter."},
	)
	RateLimitRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "portal", Name: "rate_limit_rejected_total", Help: "Number of requests rejected by the rate limiter."},
	)
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultDeclined = "declined"
	ResultDenied   = "denied"
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DocumentOps)
	reg.MustRegister(AuthChecks)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}

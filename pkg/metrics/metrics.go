package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DocumentsUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docledger", Name: "documents_uploaded_total", Help: "Number of documents appended to the registry."},
	)
	OperationsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docledger", Name: "operations_rejected_total", Help: "Number of rejected registry operations by operation and reason."},
		[]string{"op", "reason"},
	)
	EmergencyStops = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docledger", Name: "emergency_stop_total", Help: "Number of successful emergency stop toggles."},
	)
	Paused = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "docledger", Name: "paused", Help: "1 while the registry pause switch is active."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docledger", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docledger", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DocumentsUploaded)
	reg.MustRegister(OperationsRejected)
	reg.MustRegister(EmergencyStops)
	reg.MustRegister(Paused)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}

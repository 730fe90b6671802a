// Package metrics define los collectors Prometheus del servicio. Vive aparte
// para que http y los servicios de auth lo importen sin ciclos.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo",
	})

	// kind: access|refresh|reset
	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Tokens emitidos por tipo",
	}, []string{"kind"})

	// result: ok|invalid_credentials|error
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Intentos de login por resultado",
	}, []string{"result"})

	RefreshFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_refresh_failures_total",
		Help: "Refresh rechazados (desconocido, revocado, vencido o dueño inactivo)",
	})

	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_total",
		Help: "Requests cortadas por rate limit",
	}, []string{"route"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestsTotal, HTTPRequestDuration, HTTPInflight,
		TokensIssued, LoginAttempts, RefreshFailures, RateLimited,
	}
}

// Register registra todos los collectors en reg (o el default si es nil).
// Registrar dos veces no es error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelpick_api_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelpick_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CompletionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelpick_completion_requests_total",
			Help: "Completion calls by provider and outcome (ok, error, empty, rejected)",
		},
		[]string{"provider", "outcome"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelpick_completion_duration_seconds",
			Help:    "Latency of completion calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"provider"},
	)

	LikeToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelpick_like_toggles_total",
			Help: "Like toggles by resulting state (liked, unliked)",
		},
		[]string{"action"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelpick_login_attempts_total",
			Help: "Login attempts by outcome (success, invalid_credentials, error)",
		},
		[]string{"outcome"},
	)
)

func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordCompletion(provider, outcome string, duration time.Duration) {
	CompletionRequests.WithLabelValues(provider, outcome).Inc()
	if outcome != "rejected" {
		CompletionDuration.WithLabelValues(provider).Observe(duration.Seconds())
	}
}

func RecordLikeToggle(liked bool) {
	if liked {
		LikeToggles.WithLabelValues("liked").Inc()
		return
	}
	LikeToggles.WithLabelValues("unliked").Inc()
}

func RecordLogin(outcome string) {
	LoginAttempts.WithLabelValues(outcome).Inc()
}

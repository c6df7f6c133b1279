// metrics.go — Prometheus метрики запросов к backend API.
// Регистрирует метрики: dh_backend_requests_total, dh_backend_request_duration_seconds.
package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// backendRequestsTotal — количество запросов к backend по шаблону пути и статусу.
	// status = "error" для транспортных ошибок.
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dh_backend_requests_total",
			Help: "Общее количество запросов к backend API",
		},
		[]string{"method", "endpoint", "status"},
	)

	// backendRequestDuration — длительность запросов к backend.
	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dh_backend_request_duration_seconds",
			Help:    "Длительность запросов к backend API в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

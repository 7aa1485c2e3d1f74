package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stuverflow_redis_errors_total",
		Help: "Total number of Redis command errors.",
	}, []string{"command"})

	// NotificationsCreated counts notification rows written by the fan-out,
	// labeled by notification type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stuverflow_notifications_created_total",
		Help: "Total number of notification rows created.",
	}, []string{"type"})

	// NotificationsSuppressed counts self-notifications dropped by design.
	NotificationsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stuverflow_notifications_suppressed_total",
		Help: "Total number of self-notifications suppressed.",
	})
)

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus middleware for the given service name.
// The underlying collectors register with the default registry exactly once;
// repeated calls return the same instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.New(serviceName)
	})
	return promInstance
}

// MetricsMiddleware wraps the fiberprometheus handler as Fiber middleware.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}

package middleware

import (
	"strconv"
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chapel_redis_errors_total",
		Help: "Total number of failed Redis commands",
	}, []string{"command"})

	// APIErrors counts error responses by status code.
	APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chapel_api_errors_total",
		Help: "Total number of API responses with an error status",
	}, []string{"status"})

	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Fiber Prometheus middleware once per process.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records request metrics and counts error statuses.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	handler := p.Middleware
	return func(c *fiber.Ctx) error {
		err := handler(c)
		if status := c.Response().StatusCode(); status >= fiber.StatusBadRequest {
			APIErrors.WithLabelValues(strconv.Itoa(status)).Inc()
		}
		return err
	}
}

// RecordRedisError increments the Redis error counter for the operation.
func RecordRedisError(operation string) {
	RedisErrors.WithLabelValues(operation).Inc()
}

package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsIngested counts posts newly persisted by the ingestion pipeline.
	PostsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "echofeed_posts_ingested_total",
		Help: "Total number of posts newly persisted",
	})

	// PostsSkipped counts records skipped during ingestion by reason.
	PostsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "echofeed_posts_skipped_total",
		Help: "Total number of upstream records skipped during ingestion",
	}, []string{"reason"})

	// UpstreamRetries counts retried upstream search requests.
	UpstreamRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "echofeed_upstream_retries_total",
		Help: "Total number of retried upstream search requests",
	})

	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "echofeed_redis_error_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request-metrics handler for the Fiber app.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}

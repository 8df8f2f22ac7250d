package main

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthInterval = 15 * time.Second

// watchDatabase flips the overall gRPC serving status with the database
// reachability until ctx ends.
func watchDatabase(ctx context.Context, ping func(context.Context) error, hs *health.Server, log logger.ZapLogger) error {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		status := healthpb.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := ping(pingCtx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			log.Warn("Database ping failed", zap.Error(err))
		}
		cancel()
		hs.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func requestLogger(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

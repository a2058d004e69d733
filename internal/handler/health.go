package handler

import (
	"context"
	"net/http"
	"time"

	"stockcocina/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports the stock-write breaker.
// Redis is optional: summaries and the pending mirror degrade without it.
func Health(db *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
		}

		body := gin.H{
			"db":    dbStatus,
			"redis": redisStatus,
		}
		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		if cb != nil {
			st := cb.Stats()
			body["breaker"] = st
			if st.State == infra.CBOpen.String() {
				status = http.StatusServiceUnavailable
			}
		}
		body["ok"] = status == http.StatusOK

		c.JSON(status, body)
	}
}

package handler

import (
	"net/http"
	"strconv"

	"stockcocina/internal/apierror"
	"stockcocina/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ListarDLQ shows the newest failed summary jobs.
func ListarDLQ(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.JSON(http.StatusServiceUnavailable, apierror.New("Redis no configurado"))
			return
		}
		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
		entries, err := worker.DLQEntries(c.Request.Context(), rdb, worker.QueuePedidos, limit)
		if err != nil {
			_ = c.Error(err)
			return
		}
		total, _ := worker.DLQLength(c.Request.Context(), rdb, worker.QueuePedidos)
		c.JSON(http.StatusOK, gin.H{"total": total, "data": entries})
	}
}

// ReencolarDLQ pushes every dead summary job back onto the work queue.
func ReencolarDLQ(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.JSON(http.StatusServiceUnavailable, apierror.New("Redis no configurado"))
			return
		}
		n, err := worker.ReencolarDLQ(c.Request.Context(), rdb, worker.QueuePedidos)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reencolados": n})
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zahias/pillars/pkg/metrics"
)

// Metrics Prometheus 请求指标中间件
// 使用路由模板（如 /api/v1/programs/:id）作为 path 标签，避免基数爆炸
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		entry := logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration,
			"client_ip": c.ClientIP(),
			"actor":     c.GetHeader("X-User-ID"),
		})

		if c.Writer.Status() >= 400 {
			entry.Error("Request failed")
		} else {
			entry.Info("Request processed")
		}
	}
}

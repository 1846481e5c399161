package server

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns each request a UUID, honoring one supplied by the
// caller, and echoes it in the response for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog emits one structured log line per request.
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", c.GetString("request_id")),
		)
	}
}

// CORS builds the cross-origin policy. An empty origin allows all
// origins (local development); a configured origin admits its https
// form with and without the www prefix. Requests with no Origin header
// always pass, which keeps health checks and curl working.
func CORS(origin string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		MaxAge:       12 * time.Hour,
	}

	if origin == "" {
		cfg.AllowAllOrigins = true

		return cors.New(cfg)
	}

	host := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	allowed := []string{
		"https://" + host,
		"https://www." + host,
		"http://localhost:5173",
		"http://localhost:3000",
	}

	cfg.AllowOriginFunc = func(o string) bool {
		for _, a := range allowed {
			if o == a {
				return true
			}
		}

		return false
	}

	return cors.New(cfg)
}

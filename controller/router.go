package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github/itish2003/caseqa/metrics"
	"github/itish2003/caseqa/models"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// NewRouter builds the HTTP surface: the webhook on POST /, plus health and
// metrics endpoints.
func NewRouter(answers *AnswerController, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(RequestID(), AccessLog(log), Recovery(log))

	router.GET("/health", answers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/", answers.Answer)

	return router
}

// RequestID reuses the caller's X-Request-ID or assigns a new one, and echoes
// it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog logs one line per request and counts it.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()

		log.Info("request",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
}

// Recovery turns a panic into the fallback fulfillment so webhook callers
// still get a 200 with the apology text.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		log.Error("panic recovered",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.Any("error", rec),
		)
		if c.Writer.Written() {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		writeFulfillment(c, models.FallbackAnswer)
		c.Abort()
	})
}

func requestLogger(c *gin.Context, log *zap.Logger) *zap.Logger {
	return log.With(zap.String(requestIDKey, c.GetString(requestIDKey)))
}

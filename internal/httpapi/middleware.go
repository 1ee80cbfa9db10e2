package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cruxstack/cognito-credential-gateway-go/internal/gateway"
	"github.com/cruxstack/cognito-credential-gateway-go/internal/log"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags the request with an id, reusing the client's when given,
// and stores a request scoped logger in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		logger := log.With("request_id", id, "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(log.WithContext(c.Request.Context(), logger))
		c.Next()
	}
}

func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.FromContext(c.Request.Context()).Info("request completed",
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery turns a panic into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.FromContext(c.Request.Context()).Error("panic recovered", "panic", fmt.Sprint(r))
				env := gateway.Failure(fmt.Errorf("panic: %v", r))
				c.AbortWithStatusJSON(env.StatusCode, env)
			}
		}()
		c.Next()
	}
}

// CORS allows the configured origin ("*" for any) and answers preflight
// requests for known operations under basePath. Any other OPTIONS request
// falls through to routing.
func CORS(allowedOrigin, basePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowedOrigin == "*":
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && origin == allowedOrigin:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "OPTIONS, POST")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == http.MethodOptions {
			if rest, ok := gateway.CutBasePath(basePath, c.Request.URL.Path); ok && gateway.IsRoute(rest) {
				c.AbortWithStatus(http.StatusOK)
				return
			}
		}
		c.Next()
	}
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bbuilders/actionbot/internal/config"
	"github.com/bbuilders/actionbot/pkg/trace"
	"github.com/bbuilders/actionbot/pkg/util"
)

// TriggerAuth guards the scheduled run endpoint with the shared secret the
// scheduler presents as a bearer token.
func TriggerAuth(cfg config.TriggerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" || !secretMatches(token, cfg) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func secretMatches(token string, cfg config.TriggerConfig) bool {
	if cfg.SecretHash != "" {
		return util.CheckSecretHash(token, cfg.SecretHash)
	}
	return util.CheckSecret(token, cfg.Secret)
}

// JWTAuth guards the operator read API.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		subject, err := util.ParseJWT(token, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("subject", subject)
		c.Next()
	}
}

// TraceID attaches an incoming or generated trace id to the request context.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(trace.HeaderName())
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName(), traceID)
		c.Next()
	}
}

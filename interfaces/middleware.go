package interfaces

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mokarrom17/joblagbe-server/infrastructure"
)

// TokenVerifier validates a bearer token with the identity provider and
// returns its decoded claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*infrastructure.AuthClaims, error)
}

const claimsKey = "authClaims"

// RequestLogger tags every request with an id and logs method, path,
// status and latency once the handler chain finishes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Header("X-Request-Id", requestID)

		start := time.Now()
		c.Next()

		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		}).Info("request completed")
	}
}

// RequireAuth is the authentication gate: it extracts the bearer token,
// verifies it, and stores the decoded claims in the request context.
// Anything short of a verified token ends the request with 401.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logrus.WithError(err).Warn("token verification failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireEmailMatch is the authorization guard: the email query parameter
// must equal the verified token's email. Must be registered after
// RequireAuth, which supplies the claims.
func RequireEmailMatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(claimsKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
			return
		}

		claims := v.(*infrastructure.AuthClaims)
		if c.Query("email") != claims.Email {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden access"})
			return
		}
		c.Next()
	}
}

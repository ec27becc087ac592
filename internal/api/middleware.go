package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ammar1510/inbox/internal/auth"
)

const (
	userIDKey    = "userID"
	usernameKey  = "username"
	requestIDKey = "request_id"

	requestIDHeader = "X-Request-ID"
)

// AuthMiddleware validates the bearer access token and stores the caller in
// the context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, bearerToken(c))
	}
}

// TokenAuthMiddleware also accepts the token as ?token=, for clients such as
// browsers that cannot set headers on a websocket handshake
func TokenAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		authenticate(c, token)
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func authenticate(c *gin.Context, token string) {
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
		return
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Given token not valid for any token type"})
		return
	}

	userID, err := auth.GetUserIDFromToken(claims)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID format in token"})
		return
	}

	c.Set(userIDKey, userID)
	c.Set(usernameKey, claims.Username)
	c.Next()
}

// callerID returns the authenticated user. Routes behind AuthMiddleware
// always have one.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// RequestIDMiddleware tags each request with an id and logs it on completion
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()

		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if len(requestID) > 128 {
			requestID = requestID[:128]
		}
		if requestID == "" {
			requestID = newRequestID()
		}

		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		log.Info("request_id=%s method=%s path=%s status=%d latency_ms=%.2f client_ip=%s",
			requestID,
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			float64(time.Since(startedAt).Microseconds())/1000.0,
			c.ClientIP(),
		)
	}
}

func newRequestID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b[:])
}

// LimitBody caps request bodies at limit bytes
func LimitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

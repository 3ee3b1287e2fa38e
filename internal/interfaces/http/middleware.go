package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	identity "github.com/lidne/stockexchange/internal/domain/entity/identity"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	principalKey = "principal"
	requestIDKey = "request_id"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errForbidden    = errors.New("insufficient role")
)

// requestLogger logs every request once it has been served.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		entry := h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"size":       c.Writer.Size(),
			"client_ip":  c.ClientIP(),
			"duration":   time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request completed")
			return
		}
		entry.Info("request completed")
	}
}

// authenticate resolves the bearer token into a principal or rejects with 401.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || h.tokens == nil {
			writeError(c, http.StatusUnauthorized, errMissingToken)
			c.Abort()
			return
		}
		principal, err := h.tokens.Verify(raw)
		if err != nil {
			writeError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// requireRoles lets the request through when the principal holds any of roles.
func (h *Handler) requireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFrom(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, errMissingToken)
			c.Abort()
			return
		}
		if !principal.HasAnyRole(roles...) {
			writeError(c, http.StatusForbidden, errForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context) (identity.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return identity.Principal{}, false
	}
	principal, ok := value.(identity.Principal)
	return principal, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

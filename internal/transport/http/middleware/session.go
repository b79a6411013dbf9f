package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cvforge/auth-service/internal/domain"
	"github.com/cvforge/auth-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie names the cookie carrying the raw session token.
	SessionCookie = "auth_session"

	// SessionKey is the gin context key under which Session stores the
	// validated *usecase.SessionInfo.
	SessionKey = "session"

	errUnauthorized   = "Unauthorized"
	errInternalServer = "Internal server error"
)

// sessionValidator is the subset of AuthUsecase the middleware needs.
type sessionValidator interface {
	ValidateSession(ctx context.Context, rawToken string) (*usecase.SessionInfo, error)
}

// SessionToken extracts the raw session token from the request: the
// session cookie for browsers, an Authorization bearer for API clients.
func SessionToken(c *gin.Context) string {
	if v, err := c.Cookie(SessionCookie); err == nil && v != "" {
		return v
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Session authenticates the request against the session token store and
// puts the resolved SessionInfo into the gin context. Storage faults fail
// closed: a request whose token could not be checked is never let through.
func Session(auth sessionValidator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := auth.ValidateSession(c.Request.Context(), SessionToken(c))
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
				return
			}
			logger.ErrorContext(c.Request.Context(), "validate session", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
			return
		}

		c.Set(SessionKey, info)
		c.Set("subjectID", info.Subject.ID)
		c.Next()
	}
}

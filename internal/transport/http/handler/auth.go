package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cvforge/auth-service/internal/domain"
	"github.com/cvforge/auth-service/internal/transport/http/middleware"
	"github.com/cvforge/auth-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	RequestMagicLink(ctx context.Context, email string) error
	VerifyMagicLink(ctx context.Context, rawToken, email string) (*usecase.Session, error)
	Logout(ctx context.Context, rawToken string) error
}

type AuthHandler struct {
	auth          authUsecaser
	logger        *slog.Logger
	appHomeURL    string
	appErrorURL   *url.URL
	secureCookies bool
}

func NewAuthHandler(auth authUsecaser, appHomeURL, appErrorURL string, secureCookies bool, logger *slog.Logger) (*AuthHandler, error) {
	errURL, err := url.Parse(appErrorURL)
	if err != nil {
		return nil, fmt.Errorf("parse app error url: %w", err)
	}
	return &AuthHandler{
		auth:          auth,
		logger:        logger.With("component", "auth_handler"),
		appHomeURL:    appHomeURL,
		appErrorURL:   errURL,
		secureCookies: secureCookies,
	}, nil
}

type magicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /auth/magic-link
// Always returns 202 for a well-formed email, whether or not it is
// registered — the response must not reveal which emails exist.
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.RequestMagicLink(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, domain.ErrDeliveryFailed) {
			// The token exists but the user cannot reach it; it expires
			// on its own TTL. Not retried.
			h.logger.ErrorContext(c.Request.Context(), "magic link delivery", "error", err)
		} else {
			h.logger.ErrorContext(c.Request.Context(), "request magic link", "error", err)
		}
	}

	c.Status(http.StatusAccepted)
}

// GET /auth/verify?token=<raw>&email=<addr>
// Success attaches the session cookie and sends the browser into the app;
// any classified failure redirects to the recovery surface with its kind.
func (h *AuthHandler) Verify(c *gin.Context) {
	sess, err := h.auth.VerifyMagicLink(c.Request.Context(), c.Query("token"), c.Query("email"))
	if err != nil {
		kind := domain.FailureServerError
		emailAddr := ""
		var verr *domain.VerificationError
		if errors.As(err, &verr) {
			kind = verr.Kind
			emailAddr = verr.Email
		}
		c.Redirect(http.StatusSeeOther, h.recoveryURL(kind, emailAddr))
		return
	}

	h.setSessionCookie(c, sess)
	c.Redirect(http.StatusSeeOther, h.appHomeURL)
}

func (h *AuthHandler) recoveryURL(kind domain.FailureKind, emailAddr string) string {
	target := *h.appErrorURL
	q := target.Query()
	q.Set("kind", string(kind))
	if emailAddr != "" {
		q.Set("email", emailAddr)
	}
	target.RawQuery = q.Encode()
	return target.String()
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sess *usecase.Session) {
	// The cookie must not outlive the stored record.
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sess.Token, maxAge, "/", "", h.secureCookies, true)
}

type sessionResponse struct {
	SubjectID string    `json:"subject_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GET /auth/session (behind the session middleware)
// Introspects the caller's own session.
func (h *AuthHandler) Session(c *gin.Context) {
	v, ok := c.Get(middleware.SessionKey)
	info, castOK := v.(*usecase.SessionInfo)
	if !ok || !castOK {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		SubjectID: info.Subject.ID,
		Email:     info.Subject.Email,
		Name:      info.Subject.Name,
		ExpiresAt: info.ExpiresAt,
	})
}

// POST /auth/logout
// Idempotent: logging out an absent or already-deleted session is a 204.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "logout", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookies, true)
	c.Status(http.StatusNoContent)
}

type recoveryResponse struct {
	Kind   domain.FailureKind    `json:"kind"`
	Advice domain.RecoveryAdvice `json:"advice"`
	Email  string                `json:"email,omitempty"`
}

// GET /auth/recovery?kind=<kind>[&email=<addr>]
// Serves the recovery copy and actions for a failure kind so non-browser
// clients can render the same flow the redirect surface does.
func (h *AuthHandler) Recovery(c *gin.Context) {
	kind := domain.FailureKind(c.Query("kind"))
	c.JSON(http.StatusOK, recoveryResponse{
		Kind:   kind,
		Advice: domain.AdviceFor(kind),
		Email:  c.Query("email"),
	})
}

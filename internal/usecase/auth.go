package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/cvforge/auth-service/internal/domain"
	"github.com/cvforge/auth-service/internal/email"
	"github.com/cvforge/auth-service/internal/metrics"
	"github.com/cvforge/auth-service/internal/repository"
	"github.com/cvforge/auth-service/internal/token"
)

type AuthUsecase struct {
	tokens     repository.TokenRepository
	identities repository.IdentityDirectory
	email      email.Sender
	sweeper    *Sweeper
	baseURL    *url.URL
	ttl        domain.TTLPolicy
	logger     *slog.Logger
}

// NewAuthUsecase validates the trusted base origin once, at construction.
// A bad origin is a configuration fault: the service must refuse to start
// rather than mint links pointing somewhere attacker-controllable.
func NewAuthUsecase(
	tokens repository.TokenRepository,
	identities repository.IdentityDirectory,
	sender email.Sender,
	sweeper *Sweeper,
	rawBaseURL string,
	ttl domain.TTLPolicy,
	logger *slog.Logger,
) (*AuthUsecase, error) {
	base, err := url.Parse(rawBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute http(s)", rawBaseURL)
	}
	if ttl.MagicLink <= 0 || ttl.Session <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	return &AuthUsecase{
		tokens:     tokens,
		identities: identities,
		email:      sender,
		sweeper:    sweeper,
		baseURL:    base,
		ttl:        ttl,
		logger:     logger.With("component", "auth_usecase"),
	}, nil
}

// Session is the result of a successful magic-link consumption. Token is
// the raw session value handed to the client; only its hash is stored.
type Session struct {
	Token     string
	SubjectID string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// SessionInfo is the result of validating a presented session token.
type SessionInfo struct {
	Subject   *domain.Identity
	ExpiresAt time.Time
}

// RequestMagicLink mints and stores a one-time token for the identity
// behind emailAddr and hands the verification link to the email sender.
// An unknown email returns nil and does nothing: callers must observe the
// same outcome for registered and unregistered addresses.
func (u *AuthUsecase) RequestMagicLink(ctx context.Context, emailAddr string) error {
	ident, err := u.identities.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			u.logger.DebugContext(ctx, "magic link requested for unknown email")
			return nil
		}
		return fmt.Errorf("resolve identity: %w", err)
	}

	raw, err := token.New()
	if err != nil {
		return err
	}

	now := time.Now()
	rec, err := domain.NewTokenRecord(token.Hash(raw), ident.ID, domain.KindMagicLink, now, u.ttl.MagicLink)
	if err != nil {
		return fmt.Errorf("build token record: %w", err)
	}
	if err := u.tokens.Create(ctx, rec); err != nil {
		return fmt.Errorf("store magic token: %w", err)
	}
	metrics.MagicLinksIssuedTotal.Inc()

	msg := email.MagicLinkEmail{
		RecipientName:   ident.Name,
		RecipientEmail:  ident.Email,
		VerificationURL: u.verificationURL(raw, ident.Email),
	}
	if err := u.email.SendMagicLink(ctx, msg); err != nil {
		metrics.EmailsSentTotal.WithLabelValues("failed").Inc()
		// The stored token is not rolled back: unreachable by the user,
		// it simply expires and gets swept.
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	metrics.EmailsSentTotal.WithLabelValues("sent").Inc()
	return nil
}

func (u *AuthUsecase) verificationURL(rawToken, emailAddr string) string {
	verify := *u.baseURL
	verify.Path = strings.TrimRight(verify.Path, "/") + "/auth/verify"

	q := url.Values{}
	q.Set("token", rawToken)
	q.Set("email", emailAddr)
	verify.RawQuery = q.Encode()
	return verify.String()
}

// VerifyMagicLink consumes a presented token exactly once and mints a
// session for its subject. Failures come back as *domain.VerificationError
// carrying one of the four classified kinds; internal detail stays in logs.
func (u *AuthUsecase) VerifyMagicLink(ctx context.Context, rawToken, emailAddr string) (*Session, error) {
	// Every verification kicks the sweeper; the request does not wait on it.
	u.sweeper.Kick(ctx)

	sess, verr := u.verify(ctx, rawToken, emailAddr)
	if verr != nil {
		if verr.Kind == domain.FailureServerError {
			u.logger.ErrorContext(ctx, "verify magic link", "error", verr)
		}
		metrics.VerificationsTotal.WithLabelValues(string(verr.Kind)).Inc()
		return nil, verr
	}
	metrics.VerificationsTotal.WithLabelValues("success").Inc()
	return sess, nil
}

// verify runs the verification state machine in strict order; every branch
// is terminal. One clock read covers all expiry comparisons in the request.
func (u *AuthUsecase) verify(ctx context.Context, rawToken, emailAddr string) (*Session, *domain.VerificationError) {
	now := time.Now()

	// 1. Missing inputs.
	if rawToken == "" || emailAddr == "" {
		return nil, domain.Classified(domain.FailureInvalid, emailAddr, nil)
	}

	// 2. Unknown token.
	hash := token.Hash(rawToken)
	rec, err := u.tokens.Find(ctx, domain.KindMagicLink, hash)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.Classified(domain.FailureInvalid, emailAddr, nil)
		}
		return nil, domain.Classified(domain.FailureServerError, emailAddr, err)
	}

	// 3. Expired: remove the record and report it. A retry with the same
	// token then sees "invalid", since the record is gone.
	if rec.Expired(now) {
		if err := u.tokens.Delete(ctx, domain.KindMagicLink, hash); err != nil {
			u.logger.ErrorContext(ctx, "delete expired magic token", "error", err)
		}
		return nil, domain.Classified(domain.FailureExpired, emailAddr, nil)
	}

	// 4. Identity match. On mismatch the record stays live so a retry with
	// the correct email can still succeed.
	ident, err := u.identities.FindByID(ctx, rec.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.Classified(domain.FailureInvalid, emailAddr, err)
		}
		return nil, domain.Classified(domain.FailureServerError, emailAddr, err)
	}
	if !strings.EqualFold(ident.Email, emailAddr) {
		return nil, domain.Classified(domain.FailureEmailMismatch, emailAddr, nil)
	}

	// 5. Consume. The conditional delete of the magic link and the insert
	// of the session commit in one transaction; of two racing requests only
	// one gets the row, the loser lands in the ErrTokenNotFound branch.
	rawSession, err := token.New()
	if err != nil {
		return nil, domain.Classified(domain.FailureServerError, emailAddr, err)
	}
	sessionRec, err := domain.NewTokenRecord(token.Hash(rawSession), ident.ID, domain.KindSession, now, u.ttl.Session)
	if err != nil {
		return nil, domain.Classified(domain.FailureServerError, emailAddr, err)
	}
	if _, err := u.tokens.Exchange(ctx, hash, now, sessionRec); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.Classified(domain.FailureInvalid, emailAddr, nil)
		}
		return nil, domain.Classified(domain.FailureServerError, emailAddr, err)
	}

	return &Session{
		Token:     rawSession,
		SubjectID: ident.ID,
		Email:     ident.Email,
		Name:      ident.Name,
		ExpiresAt: sessionRec.ExpiresAt,
	}, nil
}

// ValidateSession resolves a presented session token to its subject.
// Absent or expired tokens yield domain.ErrUnauthenticated; anything else
// (storage faults, timeouts) is a real error and callers must fail closed.
func (u *AuthUsecase) ValidateSession(ctx context.Context, rawToken string) (*SessionInfo, error) {
	if rawToken == "" {
		metrics.SessionValidationsTotal.WithLabelValues("unauthenticated").Inc()
		return nil, domain.ErrUnauthenticated
	}

	now := time.Now()
	hash := token.Hash(rawToken)
	rec, err := u.tokens.Find(ctx, domain.KindSession, hash)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			metrics.SessionValidationsTotal.WithLabelValues("unauthenticated").Inc()
			return nil, domain.ErrUnauthenticated
		}
		metrics.SessionValidationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("find session: %w", err)
	}
	if rec.Expired(now) {
		// Opportunistic cleanup; the read path never depends on the sweeper.
		if err := u.tokens.Delete(ctx, domain.KindSession, hash); err != nil {
			u.logger.ErrorContext(ctx, "delete expired session", "error", err)
		}
		metrics.SessionValidationsTotal.WithLabelValues("unauthenticated").Inc()
		return nil, domain.ErrUnauthenticated
	}

	ident, err := u.identities.FindByID(ctx, rec.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			metrics.SessionValidationsTotal.WithLabelValues("unauthenticated").Inc()
			return nil, domain.ErrUnauthenticated
		}
		metrics.SessionValidationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve session subject: %w", err)
	}

	metrics.SessionValidationsTotal.WithLabelValues("success").Inc()
	return &SessionInfo{Subject: ident, ExpiresAt: rec.ExpiresAt}, nil
}

// Logout deletes the presented session token. Deleting an absent token is
// fine: logout is idempotent.
func (u *AuthUsecase) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	if err := u.tokens.Delete(ctx, domain.KindSession, token.Hash(rawToken)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

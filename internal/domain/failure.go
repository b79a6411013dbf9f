package domain

import "fmt"

// FailureKind is the closed set of classified verification failures.
// Every failure that reaches a client is one of these four; raw internal
// errors never leave the service.
type FailureKind string

const (
	FailureInvalid       FailureKind = "invalid"
	FailureExpired       FailureKind = "expired"
	FailureEmailMismatch FailureKind = "email_mismatch"
	FailureServerError   FailureKind = "server_error"
)

// VerificationError is a classified verification failure. Email carries the
// address presented by the client when it is known, so the recovery surface
// can pre-fill a re-request form. The cause stays internal to logs.
type VerificationError struct {
	Kind  FailureKind
	Email string
	cause error
}

func Classified(kind FailureKind, email string, cause error) *VerificationError {
	return &VerificationError{Kind: kind, Email: email, cause: cause}
}

func (e *VerificationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("verification failed (%s): %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("verification failed (%s)", e.Kind)
}

func (e *VerificationError) Unwrap() error { return e.cause }

// RecoveryAction is one thing the client can offer the user after a failure.
type RecoveryAction struct {
	Label  string `json:"label"`
	Target string `json:"target"`
}

// RecoveryAdvice is the pure-data mapping from a failure kind to the copy
// and actions a client renders. It is independent of how the failure was
// produced so redirect flows, JSON clients and CLIs all present it the same.
type RecoveryAdvice struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Primary     RecoveryAction `json:"primary"`
	Secondary   RecoveryAction `json:"secondary"`
}

var recoveryAdvice = map[FailureKind]RecoveryAdvice{
	FailureExpired: {
		Title:       "This sign-in link has expired",
		Description: "Magic links only work for a short while after they are sent. Request a fresh one and try again.",
		Primary:     RecoveryAction{Label: "Send me a new link", Target: "/auth/request"},
		Secondary:   RecoveryAction{Label: "Back to home", Target: "/"},
	},
	FailureInvalid: {
		Title:       "This sign-in link is not valid",
		Description: "The link may have already been used, or it was copied incompletely. Request a new one to sign in.",
		Primary:     RecoveryAction{Label: "Send me a new link", Target: "/auth/request"},
		Secondary:   RecoveryAction{Label: "Back to home", Target: "/"},
	},
	FailureEmailMismatch: {
		Title:       "This link belongs to a different email",
		Description: "The sign-in link does not match the email address you entered. Open the link from the inbox it was sent to, or request a new one.",
		Primary:     RecoveryAction{Label: "Send me a new link", Target: "/auth/request"},
		Secondary:   RecoveryAction{Label: "Back to home", Target: "/"},
	},
	FailureServerError: {
		Title:       "Something went wrong on our side",
		Description: "We could not complete the sign-in. Please try again in a moment.",
		Primary:     RecoveryAction{Label: "Try again", Target: "/auth/request"},
		Secondary:   RecoveryAction{Label: "Back to home", Target: "/"},
	},
}

// AdviceFor returns the recovery advice for kind. Unknown kinds fold into
// server_error so a stale or tampered query parameter still renders.
func AdviceFor(kind FailureKind) RecoveryAdvice {
	if advice, ok := recoveryAdvice[kind]; ok {
		return advice
	}
	return recoveryAdvice[FailureServerError]
}

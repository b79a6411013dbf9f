package domain

import (
	"errors"
	"time"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrDuplicateToken   = errors.New("token with this value already exists")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrDeliveryFailed   = errors.New("magic link delivery failed")
	ErrIdentityNotFound = errors.New("identity not found")
)

type TokenKind string

const (
	KindMagicLink TokenKind = "magic_link"
	KindSession   TokenKind = "session"
)

// TokenRecord is the persisted form of an unconsumed magic-link token or an
// active session token. Records are never mutated: consumption, logout and
// expiry cleanup are all whole-record deletes.
type TokenRecord struct {
	// ValueHash is the SHA-256 hex digest of the raw token value. The raw
	// value only ever exists in the emailed link or the session cookie.
	ValueHash string
	SubjectID string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewTokenRecord builds a record expiring ttl after issuedAt.
// A non-positive ttl is a programming error and is rejected so that
// ExpiresAt is always strictly after IssuedAt.
func NewTokenRecord(valueHash, subjectID string, kind TokenKind, issuedAt time.Time, ttl time.Duration) (*TokenRecord, error) {
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenRecord{
		ValueHash: valueHash,
		SubjectID: subjectID,
		Kind:      kind,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(ttl),
	}, nil
}

// Expired reports whether the record is past its TTL. Callers read the
// clock once per request and pass the same instant to every check.
func (r *TokenRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// TTLPolicy holds the two configured lifetimes: short for magic links,
// longer for sessions.
type TTLPolicy struct {
	MagicLink time.Duration
	Session   time.Duration
}

func (p TTLPolicy) For(kind TokenKind) time.Duration {
	if kind == KindSession {
		return p.Session
	}
	return p.MagicLink
}

package domain

import "time"

// Identity is the external user record this service authenticates against.
// It is owned by the profile backend; this service only ever reads it.
type Identity struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

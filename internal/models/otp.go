package models

import "time"

// PendingOTP is a one-time code waiting to be verified for an identity.
type PendingOTP struct {
	Identity  string
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is no longer usable at now.
func (p PendingOTP) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

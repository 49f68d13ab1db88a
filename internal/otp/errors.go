package otp

import "errors"

var (
	// ErrValidation is returned when a required input is missing.
	ErrValidation = errors.New("validation failed")
	// ErrAuthorization is returned when the identity is not allow-listed.
	ErrAuthorization = errors.New("identity not authorized")
	// ErrNotFound is returned when no code is pending for the identity.
	ErrNotFound = errors.New("no pending code")
	// ErrInvalidCode is returned when the submitted code does not match.
	ErrInvalidCode = errors.New("invalid code")
	// ErrExpired is returned when the pending code is past its expiry.
	ErrExpired = errors.New("code expired")
	// ErrDelivery is returned when the code could not be sent.
	ErrDelivery = errors.New("delivery failed")
	// ErrConfiguration is returned when no token signer is configured.
	ErrConfiguration = errors.New("server configuration error")
)

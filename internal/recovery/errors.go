package recovery

import "errors"

var (
	// ErrNotFound: no active OTP or token for the submitted secret.
	ErrNotFound = errors.New("no active code")
	// ErrExpired: the secret existed but its TTL has passed.
	ErrExpired = errors.New("code expired")
	// ErrAttemptsExhausted: the OTP's attempt budget is spent.
	ErrAttemptsExhausted = errors.New("too many attempts")
	// ErrMismatch: the submitted secret does not match the stored hash.
	ErrMismatch = errors.New("invalid code")
	// ErrDeliveryFailed: the code could not be sent. Logged only; the
	// issue path never surfaces it.
	ErrDeliveryFailed = errors.New("delivery failed")
	// ErrWeakPassword: the replacement password fails the length policy.
	ErrWeakPassword = errors.New("password too short")
)

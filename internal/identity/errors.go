package identity

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed sign-in attempts")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrEmailNotVerified   = errors.New("email address has not been verified")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrChallengeInvalid   = errors.New("verification code is invalid")
	ErrChallengeExpired   = errors.New("verification code has expired")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrSessionRevoked     = errors.New("session has been revoked")
)

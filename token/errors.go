package token

import "errors"

var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("invalid token signature")
	ErrTokenMalformed        = errors.New("malformed token")
	ErrTokenTypeMismatch     = errors.New("unexpected token type")
	ErrSigningUnavailable    = errors.New("signing key material unavailable")
)

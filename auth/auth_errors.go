package auth

import "errors"

// ErrTokenInvalid covers blacklisted, reused, and session-less refresh
// tokens. The cases are intentionally conflated so callers cannot be used as
// an oracle for which check failed.
var ErrTokenInvalid = errors.New("invalid token")

package auth

import "errors"

// Terminal outcomes of the auth core. None of them is transient.
var (
	ErrAuthFailure     = errors.New("incorrect username or password")
	ErrDecode          = errors.New("invalid or expired token")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("not enough privileges")
)

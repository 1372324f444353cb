package auth

import "errors"

var (
	// ErrUnauthenticated means no valid session backs the request.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrForbidden means the actor's role may not invoke the operation.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrSessionNotFound is returned by session stores for unknown or expired ids.
	ErrSessionNotFound = errors.New("auth: session not found")
)

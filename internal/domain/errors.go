package domain

import "errors"

// Sentinel errors for classifying API failures.
// The API client wraps these so commands and the UI can handle error
// categories uniformly without inspecting HTTP details.
//
//	return fmt.Errorf("failed to delete student: %w", domain.ErrNotFound)
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the request was rejected due to
	// invalid, expired, or missing credentials. The stored session is
	// discarded when the API reports it.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the session is valid but lacks permission
	// for the operation (for example a student token on a teacher route).
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates the server throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrConflict indicates a state or uniqueness conflict.
	ErrConflict = errors.New("conflict")

	// ErrUnreachable indicates the request never produced an HTTP response.
	ErrUnreachable = errors.New("server unreachable")

	// ErrBadRequest indicates the server rejected the payload with a
	// business error message.
	ErrBadRequest = errors.New("bad request")

	// ErrServer indicates the server failed to handle a valid request (5xx).
	ErrServer = errors.New("server error")

	// ErrInvalidCredentials indicates a rejected sign-in.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrValidation indicates input rejected client-side before any call.
	ErrValidation = errors.New("validation failed")
)

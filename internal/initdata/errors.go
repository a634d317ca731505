package initdata

import "errors"

var (
	ErrMalformedEncoding = errors.New("init data: malformed encoding")
	ErrMissingHash       = errors.New("init data: missing hash")
	ErrMissingUser       = errors.New("init data: missing user")
	ErrInvalidSignature  = errors.New("init data: invalid signature")
	ErrMalformedIdentity = errors.New("init data: malformed user")
	ErrExpired           = errors.New("init data: expired")
)

// AuthError carries the failed check. Reason is safe to use as a metric label
// but must never be shown to the client.
type AuthError struct {
	Reason string
	Err    error
	cause  error
}

func (e *AuthError) Error() string {
	if e.cause != nil {
		return e.Err.Error() + ": " + e.cause.Error()
	}
	return e.Err.Error()
}

func (e *AuthError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

func newAuthError(sentinel error, cause error) *AuthError {
	return &AuthError{Reason: reasonOf(sentinel), Err: sentinel, cause: cause}
}

// Reason returns the metric label for err, or "unknown" for non-auth errors.
func Reason(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return "unknown"
}

func reasonOf(sentinel error) string {
	switch sentinel {
	case ErrMalformedEncoding:
		return "malformed_encoding"
	case ErrMissingHash:
		return "missing_hash"
	case ErrMissingUser:
		return "missing_user"
	case ErrInvalidSignature:
		return "invalid_signature"
	case ErrMalformedIdentity:
		return "malformed_identity"
	case ErrExpired:
		return "expired"
	default:
		return "unknown"
	}
}

package service

import "errors"

var (
	// ErrInvalidCredentials is the generic password-step failure. It is
	// deliberately identical for unknown usernames and wrong passwords so
	// the login form cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidOTPCode is the OTP-step failure. Identity is already
	// established at this point, so the message can be specific.
	ErrInvalidOTPCode = errors.New("invalid code")

	// ErrUsernameTaken reports a duplicate username, either at validation
	// time or when the unique index rejects the insert.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidState reports an event submitted in a session step that has
	// no transition for it.
	ErrInvalidState = errors.New("operation not valid in current session state")

	// ErrNotAuthenticated reports a request that requires a completed login.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrForbidden reports an action the caller's role does not permit.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries the specific, user-correctable reason a policy
// rule rejected an input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// IsUserFacing reports whether err is safe to show verbatim to the client.
func IsUserFacing(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidOTPCode),
		errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrForbidden):
		return true
	}
	return false
}

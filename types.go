package authgate

import (
	"time"

	"github.com/MrEthical07/authgate/token"
)

// LoginFieldErrors holds the login form's synchronous field messages.
type LoginFieldErrors struct {
	Username string
	Password string
}

// LoginState is an immutable snapshot of a [LoginController].
//
// IsLockedOut implies a non-zero LockoutUntil and a CountdownSeconds equal to
// the whole seconds left, rounded up. A snapshot never shows a zero
// countdown with the lockout still active.
type LoginState struct {
	FailedAttempts    int
	LockoutUntil      time.Time
	IsLockedOut       bool
	CountdownSeconds  int
	AttemptsRemaining int
	IsSubmitting      bool
	FieldErrors       LoginFieldErrors
	Message           string
}

// LoginResult is returned by a successful [LoginController.AttemptLogin].
// Claims is nil when the backend sent no token or an undecodable one.
type LoginResult struct {
	Message string
	Token   string
	Claims  *token.Claims
}

// FieldState is the validation state of one sign-up field.
//
// Error is "" when the field is valid. Checking is only ever true for the
// username and email fields, while a uniqueness check is in flight.
type FieldState struct {
	Value    string
	Touched  bool
	Error    string
	Checking bool
}

// RegistrationState is an immutable snapshot of a [Registration].
type RegistrationState struct {
	Step       int
	Fields     map[Field]FieldState
	Submitting bool
	FormError  string
}

// RegistrationResult is returned by a successful [Registration.Submit].
// The caller moves on to the email-verification screen.
type RegistrationResult struct {
	VerificationRequired bool
	Email                string
}

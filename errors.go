package authgate

import "errors"

var (
	// ErrLoginInvalidInput is returned when the login form fails its
	// synchronous checks. It never counts toward the lockout.
	ErrLoginInvalidInput = errors.New("login input invalid")
	// ErrLoginLockedOut is returned while the lockout window is active, and by
	// the failure that starts it.
	ErrLoginLockedOut = errors.New("login locked out")
	// ErrLoginInProgress is returned when a login is already in flight.
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrInvalidCredentials is an explicit failure response from the backend.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginTimeout is returned when the login request exceeded Backend.LoginTimeout.
	ErrLoginTimeout = errors.New("login request timed out")
	// ErrBackendUnavailable covers transport failures, 5xx responses, and
	// malformed bodies.
	ErrBackendUnavailable = errors.New("auth backend unavailable")
	// ErrAvailabilityConflict marks a username or email the backend reports as taken.
	ErrAvailabilityConflict = errors.New("identifier already registered")

	// ErrStepInvalid is returned by Next when step 1 does not pass its gate.
	ErrStepInvalid = errors.New("wizard step invalid")
	// ErrRegistrationIncomplete is returned by Submit unless both steps pass.
	ErrRegistrationIncomplete = errors.New("registration incomplete")
	// ErrRegistrationRejected is an explicit failure response to a submission.
	ErrRegistrationRejected = errors.New("registration rejected")
	// ErrRegistrationInProgress is returned when a submission is already in flight.
	ErrRegistrationInProgress = errors.New("registration already in progress")
	// ErrUnknownField is returned for a field name outside the sign-up form.
	ErrUnknownField = errors.New("unknown registration field")

	// ErrControllerClosed is returned by controllers after Close.
	ErrControllerClosed = errors.New("controller closed")
	// ErrEngineNotReady is returned by a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

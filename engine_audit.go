package authgate

import (
	"context"
	"errors"

	"github.com/MrEthical07/authgate/authapi"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginRejectedLocked   = "login_rejected_locked"
	auditEventLockoutStarted        = "lockout_started"
	auditEventLockoutExpired        = "lockout_expired"
	auditEventAvailabilityConflict  = "availability_conflict"
	auditEventAvailabilityFailure   = "availability_check_failed"
	auditEventRegistrationSuccess   = "registration_success"
	auditEventRegistrationFailure   = "registration_failure"
	auditEventRegistrationConflict  = "registration_conflict"
	auditEventRegistrationStepBlock = "registration_step_blocked"
)

// AuditErrorCode is the stable error vocabulary written into AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrLockedOut          AuditErrorCode = "locked_out"
	auditErrTimeout            AuditErrorCode = "timeout"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrMalformed          AuditErrorCode = "malformed_response"
	auditErrConflict           AuditErrorCode = "conflict"
	auditErrStepInvalid        AuditErrorCode = "step_invalid"
	auditErrRejected           AuditErrorCode = "rejected"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	screenID string,
	identifier string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}
	if id := screenIDFromContext(ctx); id != "" {
		screenID = id
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:  e.clock.Now().UTC(),
		EventType:  eventType,
		ScreenID:   screenID,
		Identifier: identifier,
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginLockedOut):
		return auditErrLockedOut
	case errors.Is(err, ErrLoginTimeout), errors.Is(err, authapi.ErrTimeout):
		return auditErrTimeout
	case errors.Is(err, authapi.ErrMalformedResponse):
		return auditErrMalformed
	case errors.Is(err, ErrBackendUnavailable), errors.Is(err, authapi.ErrUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrAvailabilityConflict):
		return auditErrConflict
	case errors.Is(err, ErrStepInvalid), errors.Is(err, ErrRegistrationIncomplete):
		return auditErrStepInvalid
	case errors.Is(err, ErrRegistrationRejected):
		return auditErrRejected
	default:
		return auditErrInternal
	}
}

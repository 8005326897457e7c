package authgate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MrEthical07/authgate/authapi"
	"github.com/MrEthical07/authgate/debounce"
	"github.com/MrEthical07/authgate/internal/flows"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgRegistrationFailed      = "Registration failed. Please try again."
	msgRegistrationUnavailable = "Unable to reach the server. Please try again later."
)

// RegistrationOption customises a Registration.
type RegistrationOption func(*registrationOptions)

type registrationOptions struct {
	listener func(RegistrationState)
}

// WithRegistrationListener registers fn to receive a snapshot after every
// state change, including uniqueness check results. fn runs outside the
// wizard lock and may call back into the wizard.
func WithRegistrationListener(fn func(RegistrationState)) RegistrationOption {
	return func(o *registrationOptions) {
		o.listener = fn
	}
}

// remoteCheck is the per-field bookkeeping of a uniqueness check.
//
// generation increases on every value change and every issued request; a
// response is applied only when the generation it captured is still current
// and the field still holds the value it asked about.
type remoteCheck struct {
	debouncer  *debounce.Debouncer[string]
	generation uint64
	confirmed  string
	hasConfirm bool
}

// Registration drives the two-step sign-up wizard: synchronous rules on
// every edit, debounced uniqueness checks for username and email, step
// gating, and the final submission.
type Registration struct {
	engine    *Engine
	screenID  string
	listener  func(RegistrationState)
	validator fieldValidator

	mu         sync.Mutex
	step       int
	fields     map[Field]FieldState
	remote     map[Field]*remoteCheck
	submitting bool
	formError  string
	closed     bool
}

// NewRegistration creates a wizard on step 1 with every field untouched.
func (e *Engine) NewRegistration(opts ...RegistrationOption) (*Registration, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	var o registrationOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registration{
		engine:   e,
		screenID: uuid.NewString(),
		listener: o.listener,
		validator: fieldValidator{
			policy:    e.passwordPolicy,
			minUser:   e.config.Registration.MinUsernameLength,
			minPostal: e.config.Registration.MinPostalDigits,
			maxPostal: e.config.Registration.MaxPostalDigits,
		},
		step:   StepAccount,
		fields: make(map[Field]FieldState, len(fieldLabels)),
		remote: make(map[Field]*remoteCheck, 2),
	}
	for _, f := range AllFields() {
		r.fields[f] = FieldState{}
	}
	for _, f := range []Field{FieldUsername, FieldEmail} {
		field := f
		r.remote[field] = &remoteCheck{
			debouncer: debounce.New(e.config.Registration.DebounceDelay,
				func(value string) { r.runCheck(field, value) },
				debounce.WithClock(e.clock),
				debounce.WithSupersedeHook(func() { e.metricInc(MetricDebounceSuperseded) }),
			),
		}
	}
	return r, nil
}

// ScreenID identifies this wizard in audit events.
func (r *Registration) ScreenID() string {
	return r.screenID
}

// SetValue records an edit. The field becomes touched, its synchronous
// rules run immediately, and for username and email a passing value is
// queued for a debounced uniqueness check. Editing the password re-checks a
// touched confirmation.
func (r *Registration) SetValue(f Field, value string) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrControllerClosed
	}

	st := r.fields[f]
	st.Value = value
	st.Touched = true
	r.fields[f] = st
	r.revalidateLocked(f)

	if f == FieldPassword && r.fields[FieldConfirmPassword].Touched {
		r.revalidateLocked(FieldConfirmPassword)
	}

	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
	return nil
}

// Blur marks f touched and runs its synchronous rules on the current value,
// so a field left empty reports "is required".
func (r *Registration) Blur(f Field) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrControllerClosed
	}

	st := r.fields[f]
	if st.Touched {
		r.mu.Unlock()
		return nil
	}
	st.Touched = true
	r.fields[f] = st
	r.revalidateLocked(f)
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
	return nil
}

// Recheck re-runs validation for f. For username and email this re-queues
// the uniqueness check, which is how a user retries after a transient
// "could not check" error.
func (r *Registration) Recheck(f Field) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrControllerClosed
	}
	r.revalidateLocked(f)
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
	return nil
}

// revalidateLocked applies the synchronous rules to f and, for a remote
// field, invalidates any in-flight response and re-queues or cancels the
// debounced check.
func (r *Registration) revalidateLocked(f Field) {
	st := r.fields[f]
	st.Error = r.validator.validate(f, r.valueLocked)

	if rc, ok := r.remote[f]; ok {
		rc.generation++
		rc.hasConfirm = false
		rc.confirmed = ""
		st.Checking = false
		if st.Error == "" {
			rc.debouncer.Call(st.Value)
		} else {
			rc.debouncer.Cancel()
		}
	}

	r.fields[f] = st
}

func (r *Registration) valueLocked(f Field) string {
	return r.fields[f].Value
}

// runCheck is the debounced body of a uniqueness check. It runs on the
// timer's goroutine.
func (r *Registration) runCheck(f Field, value string) {
	e := r.engine

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	st := r.fields[f]
	rc := r.remote[f]
	if st.Value != value || st.Error != "" {
		r.mu.Unlock()
		return
	}
	rc.generation++
	gen := rc.generation
	st.Checking = true
	r.fields[f] = st
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)

	ctx := WithScreenID(context.Background(), r.screenID)
	res := flows.RunAvailabilityCheck(ctx, f.availabilityKind(), value, e.availabilityDeps())

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	st = r.fields[f]
	if rc.generation != gen || st.Value != value {
		r.mu.Unlock()
		e.metricInc(MetricAvailabilityStale)
		e.logger.Debug("stale availability response dropped",
			zap.String("screen_id", r.screenID),
			zap.String("field", string(f)),
		)
		return
	}

	st.Checking = false
	switch res.Status {
	case flows.StatusTaken:
		st.Error = conflictMessage(f)
	case flows.StatusAvailable:
		st.Error = ""
		rc.confirmed = value
		rc.hasConfirm = true
	default:
		st.Error = checkFailedMessage(f)
	}
	r.fields[f] = st
	snap = r.snapshotLocked()
	r.mu.Unlock()

	switch res.Status {
	case flows.StatusTaken:
		e.emitAudit(ctx, auditEventAvailabilityConflict, false, r.screenID, value, ErrAvailabilityConflict, func() map[string]string {
			return map[string]string{
				"field":      string(f),
				"from_cache": fmt.Sprint(res.FromCache),
			}
		})
	case flows.StatusCheckFailed:
		e.emitAudit(ctx, auditEventAvailabilityFailure, false, r.screenID, value, res.Err, func() map[string]string {
			return map[string]string{"field": string(f)}
		})
	}
	r.notify(snap)
}

// IsStepValid reports whether every field of step is touched, error-free,
// and non-empty. Username and email additionally need a finished check that
// confirmed the current value is free.
func (r *Registration) IsStepValid(step int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stepValidLocked(step)
}

func (r *Registration) stepValidLocked(step int) bool {
	fields, ok := stepFields[step]
	if !ok {
		return false
	}
	for _, f := range fields {
		st := r.fields[f]
		if !st.Touched || st.Error != "" || strings.TrimSpace(st.Value) == "" {
			return false
		}
		if rc, ok := r.remote[f]; ok {
			if st.Checking || rc.debouncer.Pending() {
				return false
			}
			if !rc.hasConfirm || rc.confirmed != st.Value {
				return false
			}
		}
	}
	return true
}

// Next advances from step 1 to step 2. It returns ErrStepInvalid while any
// step-1 field fails its gate.
func (r *Registration) Next() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrControllerClosed
	}
	if r.step == StepAddress {
		r.mu.Unlock()
		return nil
	}
	if !r.stepValidLocked(StepAccount) {
		r.mu.Unlock()
		r.engine.emitAudit(context.Background(), auditEventRegistrationStepBlock, false, r.screenID, "", ErrStepInvalid, func() map[string]string {
			return map[string]string{"step": "1"}
		})
		return ErrStepInvalid
	}
	r.step = StepAddress
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
	return nil
}

// Back returns to step 1. Entered values are kept.
func (r *Registration) Back() {
	r.mu.Lock()
	if r.closed || r.step == StepAccount {
		r.mu.Unlock()
		return
	}
	r.step = StepAccount
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)
}

// Submit posts the completed form once. A username or email conflict
// reported by the server is written onto that field and the wizard returns
// to step 1; any other rejection lands in FormError.
func (r *Registration) Submit(ctx context.Context) (*RegistrationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	e := r.engine

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrControllerClosed
	}
	if r.submitting {
		r.mu.Unlock()
		return nil, ErrRegistrationInProgress
	}
	if !r.stepValidLocked(StepAccount) || !r.stepValidLocked(StepAddress) {
		r.mu.Unlock()
		e.emitAudit(ctx, auditEventRegistrationStepBlock, false, r.screenID, "", ErrRegistrationIncomplete, func() map[string]string {
			return map[string]string{"step": "submit"}
		})
		return nil, ErrRegistrationIncomplete
	}

	req := r.requestLocked()
	r.submitting = true
	r.formError = ""
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snap)

	res := flows.RunRegister(ctx, req, e.registerDeps())

	r.mu.Lock()
	r.submitting = false
	if r.closed {
		r.mu.Unlock()
		return nil, ErrControllerClosed
	}

	var (
		result *RegistrationResult
		err    error
	)
	switch res.Status {
	case flows.RegisterSucceeded:
		result = &RegistrationResult{VerificationRequired: true, Email: req.Email}

	case flows.RegisterFieldConflict:
		f, submitted := FieldUsername, req.Username
		if res.ConflictField == flows.KindEmail {
			f, submitted = FieldEmail, req.Email
		}
		// A value edited while the request was in flight keeps its own
		// pending check; the conflict belongs to the submitted value.
		st := r.fields[f]
		if strings.TrimSpace(st.Value) == strings.TrimSpace(submitted) {
			st.Error = conflictMessage(f)
			st.Checking = false
			r.fields[f] = st
			rc := r.remote[f]
			rc.generation++
			rc.hasConfirm = false
			rc.confirmed = ""
			rc.debouncer.Cancel()
		}
		r.step = StepAccount
		err = fmt.Errorf("%w: %w", ErrRegistrationRejected, ErrAvailabilityConflict)

	case flows.RegisterRejected:
		msg := res.Message
		if msg == "" {
			msg = msgRegistrationFailed
		}
		r.formError = msg
		err = ErrRegistrationRejected

	case flows.RegisterCanceled:
		err = ctx.Err()
		if err == nil {
			err = context.Canceled
		}

	default:
		r.formError = msgRegistrationUnavailable
		err = fmt.Errorf("%w: %v", ErrBackendUnavailable, res.Err)
	}

	snap = r.snapshotLocked()
	r.mu.Unlock()

	switch {
	case result != nil:
		e.emitAudit(ctx, auditEventRegistrationSuccess, true, r.screenID, req.Email, nil, nil)
	case res.Status == flows.RegisterFieldConflict:
		e.emitAudit(ctx, auditEventRegistrationConflict, false, r.screenID, req.Email, ErrAvailabilityConflict, func() map[string]string {
			return map[string]string{"field": string(res.ConflictField)}
		})
	case errors.Is(err, context.Canceled):
	default:
		e.emitAudit(ctx, auditEventRegistrationFailure, false, r.screenID, req.Email, err, nil)
	}

	r.notify(snap)
	return result, err
}

func (r *Registration) requestLocked() authapi.RegisterRequest {
	v := r.valueLocked
	return authapi.RegisterRequest{
		FirstName: strings.TrimSpace(v(FieldFirstName)),
		LastName:  strings.TrimSpace(v(FieldLastName)),
		Username:  v(FieldUsername),
		Email:     strings.TrimSpace(v(FieldEmail)),
		Password:  v(FieldPassword),
		Address:   strings.TrimSpace(v(FieldAddress)),
		Region:    strings.TrimSpace(v(FieldRegion)),
		Province:  strings.TrimSpace(v(FieldProvince)),
		City:      strings.TrimSpace(v(FieldCity)),
		Barangay:  strings.TrimSpace(v(FieldBarangay)),
		Postal:    v(FieldPostal),
	}
}

// State returns a snapshot with its own copy of the field map.
func (r *Registration) State() RegistrationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Field returns one field's state.
func (r *Registration) Field(f Field) (FieldState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.fields[f]
	return st, ok
}

// Close stops both debouncers. In-flight checks and submissions complete
// without touching state. Close is idempotent.
func (r *Registration) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, rc := range r.remote {
		rc.debouncer.Stop()
	}
}

func (r *Registration) snapshotLocked() RegistrationState {
	fields := make(map[Field]FieldState, len(r.fields))
	for f, st := range r.fields {
		fields[f] = st
	}
	return RegistrationState{
		Step:       r.step,
		Fields:     fields,
		Submitting: r.submitting,
		FormError:  r.formError,
	}
}

func (r *Registration) notify(s RegistrationState) {
	if r.listener != nil {
		r.listener(s)
	}
}

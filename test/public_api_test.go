package test

import (
	"context"
	"net/http"
	"testing"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/authapi"
	"github.com/MrEthical07/authgate/metrics/export/prometheus"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = authgate.New
	_ = authgate.DefaultConfig

	var _ *authgate.Engine
	var _ authgate.Config
	var _ authgate.LoginState
	var _ authgate.LoginResult
	var _ authgate.RegistrationState
	var _ authgate.RegistrationResult
	var _ authgate.FieldState
	var _ authgate.Report
	var _ authgate.AuditSink
	var _ authgate.Backend = (*authapi.Client)(nil)

	var _ error = authgate.ErrLoginLockedOut
	var _ error = authgate.ErrLoginInvalidInput
	var _ error = authgate.ErrInvalidCredentials
	var _ error = authgate.ErrLoginTimeout
	var _ error = authgate.ErrBackendUnavailable
	var _ error = authgate.ErrStepInvalid
	var _ error = authgate.ErrRegistrationIncomplete
	var _ error = authgate.ErrRegistrationRejected

	var _ func(*authgate.Engine, ...authgate.LoginOption) (*authgate.LoginController, error) = (*authgate.Engine).NewLoginController
	var _ func(*authgate.Engine, ...authgate.RegistrationOption) (*authgate.Registration, error) = (*authgate.Engine).NewRegistration
	var _ func(*authgate.LoginController, context.Context, string, string) (*authgate.LoginResult, error) = (*authgate.LoginController).AttemptLogin
	var _ func(*authgate.Registration, authgate.Field, string) error = (*authgate.Registration).SetValue
	var _ func(*authgate.Registration) error = (*authgate.Registration).Next
	var _ func(*authgate.Registration, context.Context) (*authgate.RegistrationResult, error) = (*authgate.Registration).Submit
	var _ func(*prometheus.Exporter) http.Handler = (*prometheus.Exporter).Handler
}

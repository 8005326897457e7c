package authapi

import "fmt"

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the validated login result.
type LoginResponse struct {
	Success bool
	Message string
	Token   string
}

// AvailabilityResponse is the validated result of a uniqueness check.
type AvailabilityResponse struct {
	Exists bool
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Address   string `json:"address"`
	Region    string `json:"region"`
	Province  string `json:"province"`
	City      string `json:"city"`
	Barangay  string `json:"barangay"`
	Postal    string `json:"postal"`
}

// RegisterResponse is the validated registration result.
type RegisterResponse struct {
	Success bool
	Message string
}

// Wire shapes use pointers so a missing required field is distinguishable
// from its zero value.

type loginWire struct {
	Success *bool  `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

func (w loginWire) validate() (LoginResponse, error) {
	if w.Success == nil {
		return LoginResponse{}, fmt.Errorf("%w: login response missing success", ErrMalformedResponse)
	}
	return LoginResponse{Success: *w.Success, Message: w.Message, Token: w.Token}, nil
}

type availabilityWire struct {
	Exists *bool `json:"exists"`
}

func (w availabilityWire) validate() (AvailabilityResponse, error) {
	if w.Exists == nil {
		return AvailabilityResponse{}, fmt.Errorf("%w: availability response missing exists", ErrMalformedResponse)
	}
	return AvailabilityResponse{Exists: *w.Exists}, nil
}

type registerWire struct {
	Success *bool  `json:"success"`
	Message string `json:"message,omitempty"`
}

func (w registerWire) validate() (RegisterResponse, error) {
	if w.Success == nil {
		return RegisterResponse{}, fmt.Errorf("%w: register response missing success", ErrMalformedResponse)
	}
	return RegisterResponse{Success: *w.Success, Message: w.Message}, nil
}

// LoginWire, AvailabilityWire, and RegisterWire are the JSON bodies a
// conforming server writes.
type LoginWire struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

type AvailabilityWire struct {
	Exists bool `json:"exists"`
}

type RegisterWire struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

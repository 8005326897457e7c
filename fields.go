package authgate

import (
	"github.com/MrEthical07/authgate/internal/flows"
	"github.com/MrEthical07/authgate/password"
	"github.com/MrEthical07/authgate/rules"
)

// Field names one input of the sign-up wizard. The string values match the
// JSON keys of the register request.
type Field string

const (
	FieldFirstName       Field = "firstName"
	FieldLastName        Field = "lastName"
	FieldUsername        Field = "username"
	FieldEmail           Field = "email"
	FieldPassword        Field = "password"
	FieldConfirmPassword Field = "confirmPassword"
	FieldAddress         Field = "address"
	FieldRegion          Field = "region"
	FieldProvince        Field = "province"
	FieldCity            Field = "city"
	FieldBarangay        Field = "barangay"
	FieldPostal          Field = "postal"
)

const (
	// StepAccount collects identity and credentials.
	StepAccount = 1
	// StepAddress collects the delivery address.
	StepAddress = 2
)

var stepFields = map[int][]Field{
	StepAccount: {FieldFirstName, FieldLastName, FieldUsername, FieldEmail, FieldPassword, FieldConfirmPassword},
	StepAddress: {FieldAddress, FieldRegion, FieldProvince, FieldCity, FieldBarangay, FieldPostal},
}

var fieldLabels = map[Field]string{
	FieldFirstName:       "First name",
	FieldLastName:        "Last name",
	FieldUsername:        "Username",
	FieldEmail:           "Email",
	FieldPassword:        "Password",
	FieldConfirmPassword: "Confirm password",
	FieldAddress:         "Address",
	FieldRegion:          "Region",
	FieldProvince:        "Province",
	FieldCity:            "City",
	FieldBarangay:        "Barangay",
	FieldPostal:          "Postal code",
}

// AllFields returns every wizard field in form order.
func AllFields() []Field {
	out := make([]Field, 0, len(fieldLabels))
	out = append(out, stepFields[StepAccount]...)
	out = append(out, stepFields[StepAddress]...)
	return out
}

// StepFields returns the fields gated by step, or nil for an unknown step.
func StepFields(step int) []Field {
	fields, ok := stepFields[step]
	if !ok {
		return nil
	}
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Valid reports whether f is a wizard field.
func (f Field) Valid() bool {
	_, ok := fieldLabels[f]
	return ok
}

// Label is the user-facing field name.
func (f Field) Label() string {
	return fieldLabels[f]
}

// Step returns the wizard step that gates f, or 0.
func (f Field) Step() int {
	for step, fields := range stepFields {
		for _, candidate := range fields {
			if candidate == f {
				return step
			}
		}
	}
	return 0
}

// Remote reports whether f has a server-side uniqueness check.
func (f Field) Remote() bool {
	return f == FieldUsername || f == FieldEmail
}

func (f Field) availabilityKind() flows.AvailabilityKind {
	if f == FieldEmail {
		return flows.KindEmail
	}
	return flows.KindUsername
}

func conflictMessage(f Field) string {
	if f == FieldEmail {
		return flows.MessageEmailRegistered
	}
	return flows.MessageUsernameTaken
}

func checkFailedMessage(f Field) string {
	if f == FieldEmail {
		return "Could not check email availability. Please try again."
	}
	return "Could not check username availability. Please try again."
}

// fieldValidator runs the synchronous rules for one field. values returns
// the live value of any field so confirmPassword can read the password.
type fieldValidator struct {
	policy    *password.Policy
	minUser   int
	minPostal int
	maxPostal int
}

func (v fieldValidator) validate(f Field, values func(Field) string) string {
	value := values(f)
	switch f {
	case FieldFirstName, FieldLastName:
		return rules.PersonName(f.Label(), value)
	case FieldUsername:
		return rules.Username(value, v.minUser)
	case FieldEmail:
		return rules.Email(value)
	case FieldPassword:
		return password.Message(v.policy.Validate(value))
	case FieldConfirmPassword:
		return rules.ConfirmPassword(values(FieldPassword), value)
	case FieldPostal:
		return rules.Postal(value, v.minPostal, v.maxPostal)
	default:
		return rules.Required(f.Label(), value)
	}
}

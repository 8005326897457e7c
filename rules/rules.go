// Package rules holds the synchronous, format-only field checks used by the
// login screen and the sign-up wizard.
//
// Every check returns the user-facing message for the first failing rule, or
// "" when the value is acceptable. Checks never touch the network.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinUsernameLength applies to both login and sign-up.
	MinUsernameLength = 3
	// MinLoginPasswordLength is the login screen's lighter password check.
	MinLoginPasswordLength = 6
	// MinPostalDigits and MaxPostalDigits bound the postal code length.
	MinPostalDigits = 4
	MaxPostalDigits = 6
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Required reports an empty (after trimming) value.
func Required(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return label + " is required"
	}
	return ""
}

// PersonName accepts letters and spaces only.
func PersonName(label, value string) string {
	if msg := Required(label, value); msg != "" {
		return msg
	}
	for _, r := range value {
		if !unicode.IsLetter(r) && r != ' ' {
			return label + " can only contain letters and spaces"
		}
	}
	return ""
}

// Username checks presence, minimum length, and the [A-Za-z0-9_] charset.
func Username(value string, minLength int) string {
	if value == "" {
		return "Username is required"
	}
	if utf8.RuneCountInString(value) < minLength {
		return fmt.Sprintf("Username must be at least %d characters", minLength)
	}
	if !usernamePattern.MatchString(value) {
		return "Username can only contain letters, numbers, and underscores"
	}
	return ""
}

// Email checks presence and a local@domain.tld shape.
func Email(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Email is required"
	}
	if !emailPattern.MatchString(value) {
		return "Please enter a valid email address"
	}
	return ""
}

// ConfirmPassword compares the confirmation against the current password.
func ConfirmPassword(password, confirm string) string {
	if confirm == "" {
		return "Please confirm your password"
	}
	if password != confirm {
		return "Passwords do not match"
	}
	return ""
}

// LoginUsername is the login screen's presence and length check. The
// charset rule is left to the server so legacy accounts can still sign in.
func LoginUsername(value string, minLength int) string {
	if strings.TrimSpace(value) == "" {
		return "Username is required"
	}
	if utf8.RuneCountInString(value) < minLength {
		return fmt.Sprintf("Username must be at least %d characters", minLength)
	}
	return ""
}

// LoginPassword is the login screen's presence and length check.
func LoginPassword(value string, minLength int) string {
	if value == "" {
		return "Password is required"
	}
	if utf8.RuneCountInString(value) < minLength {
		return fmt.Sprintf("Password must be at least %d characters", minLength)
	}
	return ""
}

// Postal accepts an ASCII numeric string of minDigits..maxDigits.
func Postal(value string, minDigits, maxDigits int) string {
	if value == "" {
		return "Postal code is required"
	}
	if len(value) < minDigits || len(value) > maxDigits {
		return fmt.Sprintf("Postal code must be %d-%d digits", minDigits, maxDigits)
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return fmt.Sprintf("Postal code must be %d-%d digits", minDigits, maxDigits)
		}
	}
	return ""
}

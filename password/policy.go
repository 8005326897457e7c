package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMinLength is the sign-up minimum password length.
	DefaultMinLength = 8
	// DefaultSpecialCharacters is the symbol set a password must draw from.
	DefaultSpecialCharacters = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"

	maxLength = 128
)

// Rule identifies a single strength requirement.
type Rule uint8

const (
	RuleRequired Rule = iota
	RuleMinLength
	RuleMaxLength
	RuleUppercase
	RuleLowercase
	RuleDigit
	RuleSpecial
)

func (r Rule) String() string {
	switch r {
	case RuleRequired:
		return "required"
	case RuleMinLength:
		return "min_length"
	case RuleMaxLength:
		return "max_length"
	case RuleUppercase:
		return "uppercase"
	case RuleLowercase:
		return "lowercase"
	case RuleDigit:
		return "digit"
	case RuleSpecial:
		return "special"
	default:
		return "unknown"
	}
}

// ErrPolicyViolation is matched by every [Violation] through errors.Is.
var ErrPolicyViolation = errors.New("password policy violation")

// Violation reports the first rule a candidate password failed.
type Violation struct {
	Rule    Rule
	Message string
}

func (v *Violation) Error() string {
	return "password policy violation: " + v.Rule.String()
}

// Is lets callers match any violation with errors.Is(err, ErrPolicyViolation).
func (v *Violation) Is(target error) bool {
	return target == ErrPolicyViolation
}

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	MinLength         int
	SpecialCharacters string
}

// DefaultConfig returns the storefront sign-up policy.
func DefaultConfig() Config {
	return Config{
		MinLength:         DefaultMinLength,
		SpecialCharacters: DefaultSpecialCharacters,
	}
}

// Policy checks candidate passwords against a Config.
type Policy struct {
	config Config
}

// NewPolicy validates cfg and returns a Policy.
func NewPolicy(cfg Config) (*Policy, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Policy{config: cfg}, nil
}

// Config returns the policy parameters.
func (p *Policy) Config() Config {
	return p.config
}

// Validate returns nil when candidate satisfies every rule, otherwise a
// *Violation for the first failing rule.
func (p *Policy) Validate(candidate string) error {
	if candidate == "" {
		return &Violation{Rule: RuleRequired, Message: "Password is required"}
	}

	n := utf8.RuneCountInString(candidate)
	if n < p.config.MinLength {
		return &Violation{
			Rule:    RuleMinLength,
			Message: fmt.Sprintf("Password must be at least %d characters", p.config.MinLength),
		}
	}
	if n > maxLength {
		return &Violation{
			Rule:    RuleMaxLength,
			Message: fmt.Sprintf("Password must be at most %d characters", maxLength),
		}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(p.config.SpecialCharacters, r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return &Violation{Rule: RuleUppercase, Message: "Password must contain at least one uppercase letter"}
	case !hasLower:
		return &Violation{Rule: RuleLowercase, Message: "Password must contain at least one lowercase letter"}
	case !hasDigit:
		return &Violation{Rule: RuleDigit, Message: "Password must contain at least one number"}
	case !hasSpecial:
		return &Violation{
			Rule:    RuleSpecial,
			Message: "Password must contain at least one special character (" + p.config.SpecialCharacters + ")",
		}
	}

	return nil
}

// Message returns the user-facing message for err, or "" when err is nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var v *Violation
	if errors.As(err, &v) {
		return v.Message
	}
	return err.Error()
}

func validateConfig(cfg Config) error {
	if cfg.MinLength < 1 {
		return errors.New("password MinLength must be >= 1")
	}
	if cfg.MinLength > maxLength {
		return fmt.Errorf("password MinLength must be <= %d", maxLength)
	}
	if cfg.SpecialCharacters == "" {
		return errors.New("password SpecialCharacters must not be empty")
	}
	for _, r := range cfg.SpecialCharacters {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return fmt.Errorf("password SpecialCharacters contains non-symbol %q", r)
		}
	}
	return nil
}

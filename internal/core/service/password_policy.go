package service

import (
	"fmt"
	"unicode"

	"github.com/innoshop/platform/internal/core/domain"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordPolicy is the strength rule applied on registration and reset.
// Passwords longer than MaxPasswordBytes are always rejected.
type PasswordPolicy struct {
	MinLength     int
	RequireDigit  bool
	RequireLower  bool
	RequireUpper  bool
	RequireSymbol bool
}

// DefaultPasswordPolicy requires six characters with a digit and a lowercase letter.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 6, RequireDigit: true, RequireLower: true}
}

// Check returns a *domain.PasswordPolicyError listing every rule password
// breaks, or nil.
func (p PasswordPolicy) Check(password string) error {
	var hasDigit, hasLower, hasUpper, hasSymbol bool
	length := 0
	for _, r := range password {
		length++
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r):
			hasSymbol = true
		}
	}

	var violations []string
	if length < p.MinLength {
		violations = append(violations, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}
	if len(password) > MaxPasswordBytes {
		violations = append(violations, fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}
	if p.RequireDigit && !hasDigit {
		violations = append(violations, "must contain a digit")
	}
	if p.RequireLower && !hasLower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if p.RequireUpper && !hasUpper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if p.RequireSymbol && !hasSymbol {
		violations = append(violations, "must contain a non-alphanumeric character")
	}
	if len(violations) > 0 {
		return &domain.PasswordPolicyError{Violations: violations}
	}
	return nil
}

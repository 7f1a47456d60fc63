package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Account models a registered identity and its credential state.
type Account struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"displayName"`
	PasswordHash     string    `json:"-"`
	IsActive         bool      `json:"isActive"`
	IsEmailConfirmed bool      `json:"isEmailConfirmed"`
	Roles            []string  `json:"roles"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// HasRole reports whether the account is a member of role.
func (a *Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so store implementations never share the roles slice.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Roles = append([]string(nil), a.Roles...)
	return &cp
}

// NormalizeEmail returns the lookup key for an email address. Two addresses
// that differ only in case map to the same key. A Caser is stateful, so one
// is built per call.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

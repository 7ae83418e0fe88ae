package service

import (
	"unicode"

	"github.com/mercato-next/internal/config"
)

// passwordPolicyError 携带 i18n key 与参数，errors.Is 统一归并为 ErrWeakPassword
type passwordPolicyError struct {
	key  string
	args []interface{}
}

func (e passwordPolicyError) Error() string        { return e.key }
func (e passwordPolicyError) Is(target error) bool { return target == ErrWeakPassword }
func (e passwordPolicyError) Key() string          { return e.key }
func (e passwordPolicyError) Args() []interface{}  { return e.args }

func weakPassword(key string, args ...interface{}) error {
	return passwordPolicyError{key: key, args: args}
}

type passwordTraits struct {
	length  int
	upper   bool
	lower   bool
	digit   bool
	special bool
}

func inspectPassword(password string) passwordTraits {
	var t passwordTraits
	for _, r := range password {
		t.length++
		switch {
		case unicode.IsUpper(r):
			t.upper = true
		case unicode.IsLower(r):
			t.lower = true
		case unicode.IsDigit(r):
			t.digit = true
		default:
			t.special = true
		}
	}
	return t
}

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	enabled := policy.MinLength > 0 ||
		policy.RequireUpper || policy.RequireLower ||
		policy.RequireNumber || policy.RequireSpecial
	if !enabled {
		return nil
	}

	traits := inspectPassword(password)
	switch {
	case policy.MinLength > 0 && traits.length < policy.MinLength:
		return weakPassword("error.password_min_length", policy.MinLength)
	case policy.RequireUpper && !traits.upper:
		return weakPassword("error.password_require_upper")
	case policy.RequireLower && !traits.lower:
		return weakPassword("error.password_require_lower")
	case policy.RequireNumber && !traits.digit:
		return weakPassword("error.password_require_number")
	case policy.RequireSpecial && !traits.special:
		return weakPassword("error.password_require_special")
	}
	return nil
}

package crypto

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

var (
	ErrPasswordTooShort      = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong       = fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
	ErrPasswordNoUpper       = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLower       = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoNumber      = errors.New("password must contain at least one number")
	ErrPasswordNoSpecialChar = errors.New("password must contain at least one special character")
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var strengthRules = []struct {
	re  *regexp.Regexp
	err error
}{
	{regexp.MustCompile(`[A-Z]`), ErrPasswordNoUpper},
	{regexp.MustCompile(`[a-z]`), ErrPasswordNoLower},
	{regexp.MustCompile(`[0-9]`), ErrPasswordNoNumber},
	{regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`), ErrPasswordNoSpecialChar},
}

// ValidatePasswordStrength reports the first rule password breaks. It is only
// consulted when strong passwords are switched on for registration.
func ValidatePasswordStrength(password string) error {
	switch {
	case len(password) < 8:
		return ErrPasswordTooShort
	case len(password) > maxPasswordBytes:
		return ErrPasswordTooLong
	}
	for _, rule := range strengthRules {
		if !rule.re.MatchString(password) {
			return rule.err
		}
	}
	return nil
}

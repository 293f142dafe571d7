package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores bytes past 72
	maxNameLength     = 50
)

// ValidatePassword checks the password length bounds.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLength)
	}
	return nil
}

// ValidateEmail checks that email is a bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || strings.HasSuffix(email, ".") {
		return fmt.Errorf("please enter a valid email")
	}
	if domain := email[strings.LastIndex(email, "@")+1:]; !strings.Contains(domain, ".") {
		return fmt.Errorf("please enter a valid email")
	}
	return nil
}

// ValidateName checks a display name after trimming.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name is required")
	}
	if len([]rune(trimmed)) > maxNameLength {
		return fmt.Errorf("name cannot be more than %d characters", maxNameLength)
	}
	return nil
}

// ValidatePhone checks a contact number.
func ValidatePhone(number string) error {
	if !phoneRegex.MatchString(number) {
		return fmt.Errorf("please enter a valid phone number")
	}
	return nil
}

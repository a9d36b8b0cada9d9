package gateway

import (
	"fmt"
	"regexp"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)

// ValidatePhone checks for an E.164-shaped number. Formatting only; no
// carrier lookup.
func ValidatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone number is empty")
	}
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("phone number %q is not E.164", phone)
	}
	return nil
}

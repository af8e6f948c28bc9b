package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	profileNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
	pinRegex         = regexp.MustCompile(`^[0-9]+$`)
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateProfileName checks that a profile name is usable as a file name and a database key
func ValidateProfileName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	if len(name) > 32 {
		return ValidationError{Field: "name", Message: "name must be at most 32 characters"}
	}
	if !profileNameRegex.MatchString(name) {
		return ValidationError{Field: "name", Message: "name may only contain letters, digits, '-' and '_'"}
	}
	return nil
}

// ValidatePin checks an optional profile PIN. An empty PIN is allowed.
func ValidatePin(pin string) error {
	if pin == "" {
		return nil
	}
	if len(pin) < 4 || len(pin) > 8 {
		return ValidationError{Field: "pin", Message: "pin must be 4 to 8 digits"}
	}
	if !pinRegex.MatchString(pin) {
		return ValidationError{Field: "pin", Message: "pin may only contain digits"}
	}
	return nil
}

// ValidateLanguages checks the spoken/learned pair chosen before any question is shown
func ValidateLanguages(spoken, learned string, known []string) error {
	spoken = strings.TrimSpace(spoken)
	learned = strings.TrimSpace(learned)
	if spoken == "" {
		return ValidationError{Field: "spoken_language", Message: "spoken language is required"}
	}
	if learned == "" {
		return ValidationError{Field: "learned_language", Message: "learned language is required"}
	}
	if spoken == learned {
		return ValidationError{Field: "learned_language", Message: "learned language must differ from spoken language"}
	}
	if known != nil {
		if !contains(known, spoken) {
			return ValidationError{Field: "spoken_language", Message: fmt.Sprintf("unknown language %q", spoken)}
		}
		if !contains(known, learned) {
			return ValidationError{Field: "learned_language", Message: fmt.Sprintf("unknown language %q", learned)}
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

package utils

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxUsernameLength is the longest username accepted, in characters
const MaxUsernameLength = 60

// UsernameError represents a username validation error
type UsernameError struct {
	Code    string
	Message string
}

func (e *UsernameError) Error() string {
	return e.Message
}

// ValidateUsername checks a username against the account naming rules:
// ASCII letters, digits, spaces and @+_.'- plus letters outside ASCII, no
// leading, trailing or repeated spaces, at most MaxUsernameLength characters.
func ValidateUsername(name string) error {
	if name == "" {
		return &UsernameError{Code: "USERNAME_REQUIRED", Message: "You must enter a username."}
	}
	if strings.HasPrefix(name, " ") {
		return &UsernameError{Code: "USERNAME_LEADING_SPACE", Message: "The username cannot begin with a space."}
	}
	if strings.HasSuffix(name, " ") {
		return &UsernameError{Code: "USERNAME_TRAILING_SPACE", Message: "The username cannot end with a space."}
	}
	if strings.Contains(name, "  ") {
		return &UsernameError{Code: "USERNAME_MULTIPLE_SPACES", Message: "The username cannot contain multiple spaces in a row."}
	}
	for _, r := range name {
		if !usernameRune(r) {
			return &UsernameError{Code: "USERNAME_ILLEGAL_CHARACTER", Message: "The username contains an illegal character."}
		}
	}
	if utf8.RuneCountInString(name) > MaxUsernameLength {
		return &UsernameError{
			Code:    "USERNAME_TOO_LONG",
			Message: fmt.Sprintf("The username %s is too long: it must be %d characters or less.", name, MaxUsernameLength),
		}
	}
	return nil
}

func usernameRune(r rune) bool {
	switch {
	case r < utf8.RuneSelf:
		return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune(" @+_.'-", r)
	default:
		return unicode.IsLetter(r) || unicode.IsMark(r)
	}
}

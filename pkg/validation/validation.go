package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxMetadataLength is the maximum length of the sensitivity and delivery tags.
const MaxMetadataLength = 50

var (
	// ErrEmptyMessageBody is returned when a message body is empty or only contains whitespace.
	ErrEmptyMessageBody = errors.New("message must not be empty")
	// ErrInvalidMetadata is returned when a sensitivity or delivery tag is too long.
	ErrInvalidMetadata = errors.New("sensitivity and delivery must have at most 50 characters")
	// ErrInvalidCode is returned when a code does not match the configured length and alphabet.
	ErrInvalidCode = errors.New("code has an invalid length or contains invalid characters")
)

// NormalizeCode returns the canonical form of a code: surrounding whitespace removed, upper case.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode checks that code has exactly length characters, all of them from alphabet.
func ValidateCode(code, alphabet string, length int) error {
	if utf8.RuneCountInString(code) != length {
		return ErrInvalidCode
	}

	for _, r := range code {
		if !strings.ContainsRune(alphabet, r) {
			return ErrInvalidCode
		}
	}

	return nil
}

// ValidateMessageBody checks that the message body contains something other than whitespace.
func ValidateMessageBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyMessageBody
	}

	return nil
}

// ValidateMetadata checks the optional sensitivity and delivery tags.
func ValidateMetadata(tags ...string) error {
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > MaxMetadataLength {
			return ErrInvalidMetadata
		}
	}

	return nil
}

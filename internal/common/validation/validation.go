package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/open-builders/secret-santa-bot/internal/common/errors"
)

const (
	// Maximum lengths in characters
	MaxFullNameLength = 128
	MaxGroupLength    = 32
	MaxRoomLength     = 32
	MaxWishesLength   = 1000
)

// ValidateFullName checks the name entered during registration.
func ValidateFullName(name string) error {
	return validateText("full name", name, MaxFullNameLength, false)
}

// ValidateGroup checks the study group.
func ValidateGroup(group string) error {
	return validateText("group", group, MaxGroupLength, false)
}

// ValidateRoom checks the dormitory room.
func ValidateRoom(room string) error {
	return validateText("room", room, MaxRoomLength, false)
}

// ValidateWishes checks gift wishes. Empty wishes and line breaks are
// allowed here.
func ValidateWishes(wishes string) error {
	if strings.TrimSpace(wishes) == "" {
		return nil
	}
	return validateText("wishes", wishes, MaxWishesLength, true)
}

func validateText(field, value string, max int, multiline bool) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid(field, fmt.Sprintf("%s cannot be empty", field))
	}
	if n := utf8.RuneCountInString(value); n > max {
		return invalid(field, fmt.Sprintf("%s cannot exceed %d characters", field, max))
	}
	for _, r := range value {
		if r == '\n' && multiline {
			continue
		}
		if unicode.IsControl(r) {
			if multiline {
				return invalid(field, fmt.Sprintf("%s contains unsupported characters", field))
			}
			return invalid(field, fmt.Sprintf("%s must be a single line of text", field))
		}
	}
	return nil
}

func invalid(field, msg string) error {
	return apperrors.New(apperrors.ErrCodeValidation, msg).WithDetail("field", field)
}

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/open-builders/secret-santa-bot/internal/common/errors"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		value   string
		wantErr string
	}{
		{"name ok", ValidateFullName, "Анна Иванова", ""},
		{"name empty", ValidateFullName, "   ", "full name cannot be empty"},
		{"name too long", ValidateFullName, strings.Repeat("я", MaxFullNameLength+1), "full name cannot exceed 128 characters"},
		{"name at limit", ValidateFullName, strings.Repeat("я", MaxFullNameLength), ""},
		{"group multiline", ValidateGroup, "A\n7", "group must be a single line of text"},
		{"room ok", ValidateRoom, "101b", ""},
		{"wishes multiline", ValidateWishes, "books\nsocks", ""},
		{"wishes empty", ValidateWishes, "", ""},
		{"wishes blank", ValidateWishes, " \n ", ""},
		{"wishes too long", ValidateWishes, strings.Repeat("a", MaxWishesLength+1), "wishes cannot exceed 1000 characters"},
		{"wishes tab", ValidateWishes, "books\tsocks", "wishes contains unsupported characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.value)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
			assert.Equal(t, tt.wantErr, appErr.Message)
		})
	}
}

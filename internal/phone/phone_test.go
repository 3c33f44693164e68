package phone_test

import (
	"testing"

	"github.com/kramstore/delivery/internal/phone"
	"github.com/stretchr/testify/assert"
)

func TestFormat_International(t *testing.T) {
	assert.Equal(t, "+380 67 123 45 67", phone.Format("380671234567"))
	assert.Equal(t, "+380 67 123 45 67", phone.Format("+380671234567"))
	assert.Equal(t, "+380 67 123 45 67", phone.Format("+380 67 123 45 67"))
}

func TestFormat_Local(t *testing.T) {
	assert.Equal(t, "067 123 45 67", phone.Format("0671234567"))
	assert.Equal(t, "067 123 45 67", phone.Format("067-123-45-67"))
}

func TestFormat_Incremental(t *testing.T) {
	// Reformatted on every keystroke from the raw digit string.
	tests := []struct {
		raw  string
		want string
	}{
		{"3", "3"},
		{"38", "38"},
		{"380", "+380"},
		{"3806", "+380 6"},
		{"38067", "+380 67"},
		{"380671", "+380 67 1"},
		{"3806712345", "+380 67 123 45"},
		{"0", "0"},
		{"06", "06"},
		{"067", "067"},
		{"0671", "067 1"},
		{"06712345", "067 123 45"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, phone.Format(tt.raw))
		})
	}
}

func TestFormat_Idempotent(t *testing.T) {
	// Formatting formatted output must not compound separators.
	once := phone.Format("380671234567")
	assert.Equal(t, once, phone.Format(once))
	assert.Equal(t, once, phone.Format(phone.Format(once)))
}

func TestFormat_ExcessDigitsDropped(t *testing.T) {
	assert.Equal(t, "+380 67 123 45 67", phone.Format("38067123456789"))
	assert.Equal(t, "067 123 45 67", phone.Format("067123456789"))
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "", phone.Format(""))
	assert.Equal(t, "", phone.Format("abc"))
}

func TestValid(t *testing.T) {
	assert.True(t, phone.Valid("+380671234567"))
	assert.True(t, phone.Valid("380671234567"))
	assert.True(t, phone.Valid("0671234567"))
	assert.True(t, phone.Valid("067 123 45 67"))

	assert.False(t, phone.Valid("06712345"))
	assert.False(t, phone.Valid("38067123456"))
	assert.False(t, phone.Valid("1234567890"))
	assert.False(t, phone.Valid(""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "+380671234567", phone.Normalize("0671234567"))
	assert.Equal(t, "+380671234567", phone.Normalize("380671234567"))
	assert.Equal(t, "+380671234567", phone.Normalize("+380 67 123 45 67"))

	// Invalid input falls through as bare digits.
	assert.Equal(t, "12345", phone.Normalize("12345"))
}

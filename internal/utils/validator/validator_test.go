package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := map[string]bool{
		"user@example.com":       true,
		"first.last+tag@mail.co": true,
		"USER@EXAMPLE.ORG":       true,
		"user@example":           false,
		"user.example.com":       false,
		"":                       false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsValidEmail(in), in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestIsValidPhone(t *testing.T) {
	tests := map[string]bool{
		"5551234567":  true,
		"5012345678":  true,
		"5612345678":  true,
		"5212345678":  false,
		"555123456":   false,
		"55512345678": false,
		"55512a4567":  false,
		"+905551234":  false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsValidPhone(in), in)
	}
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetListenAddress(t *testing.T) {
	tests := []struct {
		port, env, want string
	}{
		{"3000", "development", ":3000"},
		{"3000", "production", "0.0.0.0:3000"},
		{"", "development", ":8080"},
		{"abc", "production", "0.0.0.0:8080"},
		{"5", "development", ":8080"},
		{"70000", "development", ":8080"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetListenAddress(tt.port, tt.env), "port %q env %q", tt.port, tt.env)
	}
}

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		wantToken  string
		wantErr    error
	}{
		{"valid bearer token", "Bearer eyJhbGciOiJIUzI1NiJ9", "eyJhbGciOiJIUzI1NiJ9", nil},
		{"empty header", "", "", ErrMissingAuthHeader},
		{"missing Bearer prefix", "eyJhbGciOiJIUzI1NiJ9", "", ErrInvalidAuthHeader},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", ErrInvalidAuthHeader},
		{"Bearer with no token", "Bearer ", "", ErrInvalidAuthHeader},
		// Whitespace after the prefix is passed through; JWT validation
		// rejects it downstream.
		{"Bearer with whitespace token", "Bearer    ", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ExtractBearerToken(tt.authHeader)
			// No else needed: early return pattern (guard clause)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		name          string
		userRoles     []string
		requiredRoles []string
		want          bool
	}{
		{"has single required role", []string{"admin", "operator"}, []string{"admin"}, true},
		{"has one of multiple required roles", []string{"operator"}, []string{"admin", "operator"}, true},
		{"has none of required roles", []string{"viewer"}, []string{"admin", "operator"}, false},
		{"empty user roles", []string{}, []string{"admin"}, false},
		{"empty required roles", []string{"admin"}, []string{}, false},
		{"both empty", []string{}, []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasRole(tt.userRoles, tt.requiredRoles...))
		})
	}
}

package util

import (
	"errors"
	"strings"
)

var (
	// ErrMissingAuthHeader is returned when the Authorization header is missing
	ErrMissingAuthHeader = errors.New("missing Authorization header")
	// ErrInvalidAuthHeader is returned when the Authorization header format is invalid
	ErrInvalidAuthHeader = errors.New("invalid Authorization header format")
)

// ExtractBearerToken pulls the token out of a "Bearer <token>" Authorization
// header. Both the operator WebSocket upgrade and the admin API use this
// before any JWT validation runs.
func ExtractBearerToken(authHeader string) (string, error) {
	// No else needed: early return pattern (guard clause)
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthHeader
	}

	token := authHeader[len(bearerPrefix):]
	if token == "" {
		return "", ErrInvalidAuthHeader
	}
	return token, nil
}

// HasRole reports whether any of the required roles is present in userRoles.
func HasRole(userRoles []string, requiredRoles ...string) bool {
	roleMap := make(map[string]bool, len(userRoles))
	for _, role := range userRoles {
		roleMap[role] = true
	}

	for _, required := range requiredRoles {
		if roleMap[required] {
			return true
		}
	}
	return false
}

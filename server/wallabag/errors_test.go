package wallabag

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestUserFacingReason(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "config incomplete",
			err:      errors.Wrap(ErrConfigIncomplete, "password is not set"),
			expected: "not configured",
		},
		{
			name:     "auth error",
			err:      &AuthError{Cause: errors.New("status 400")},
			expected: "authentication",
		},
		{
			name:     "save error",
			err:      &SaveError{URL: "https://a.example", Cause: errors.New("status 500")},
			expected: "could not store",
		},
		{
			name:     "unknown",
			err:      errors.New("odd"),
			expected: "unexpected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := UserFacingReason(tt.err)
			assert.Contains(t, strings.ToLower(reason), tt.expected)
			// The underlying cause never reaches the chat surface.
			assert.NotContains(t, reason, "status 400")
			assert.NotContains(t, reason, "status 500")
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "network error", err: &transientError{cause: errors.New("connection refused")}, expected: true},
		{name: "server error", err: &apiError{StatusCode: 502}, expected: true},
		{name: "client error", err: &apiError{StatusCode: 422}, expected: false},
		{name: "unauthorized", err: &apiError{StatusCode: 401}, expected: false},
		{name: "auth error never transient", err: &AuthError{Cause: errors.New("status 400")}, expected: false},
		{name: "plain error", err: errors.New("odd"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isTransient(tt.err))
		})
	}
}

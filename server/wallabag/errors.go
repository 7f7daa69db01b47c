package wallabag

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrConfigIncomplete indicates that a required credential or the instance URL
// is missing; the client cannot issue any request.
var ErrConfigIncomplete = errors.New("wallabag configuration is incomplete")

// AuthError indicates that authentication failed even after falling back to a
// full password-grant re-authentication.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string {
	if e.Cause == nil {
		return "wallabag authentication failed"
	}
	return "wallabag authentication failed: " + e.Cause.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// SaveError indicates that saving a URL failed after exhausting the retry
// budget or hitting a non-retriable API error. It carries the last underlying
// cause.
type SaveError struct {
	URL   string
	Cause error
}

func (e *SaveError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("failed to save %s", e.URL)
	}
	return fmt.Sprintf("failed to save %s: %s", e.URL, e.Cause.Error())
}

func (e *SaveError) Unwrap() error {
	return e.Cause
}

// transientError marks a failure worth retrying: network errors, timeouts and
// connection resets. 5xx responses are marked transient through apiError.
type transientError struct {
	cause error
}

func (e *transientError) Error() string {
	return e.cause.Error()
}

func (e *transientError) Unwrap() error {
	return e.cause
}

// apiError is a non-2xx response from the Wallabag API.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("wallabag API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("wallabag API returned status %d: %s", e.StatusCode, e.Body)
}

// UserFacingReason maps the typed error kinds onto a short chat-safe message.
// The detailed cause only belongs in the log; both the slash commands and the
// thread replies render failures through this one mapping.
func UserFacingReason(err error) string {
	var authErr *AuthError
	var saveErr *SaveError

	switch {
	case errors.Is(err, ErrConfigIncomplete):
		return "the Wallabag connection is not configured yet, ask an administrator to complete the plugin settings"
	case errors.As(err, &authErr):
		return "authentication with Wallabag failed, check the configured credentials"
	case errors.As(err, &saveErr):
		return "Wallabag could not store the article, details were logged"
	default:
		return "an unexpected error occurred, details were logged"
	}
}

// isTransient reports whether err should consume an attempt of the retry
// budget. Auth failures are never transient: retrying with the same
// credentials cannot succeed.
func isTransient(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}

	var tErr *transientError
	if errors.As(err, &tErr) {
		return true
	}

	var aErr *apiError
	if errors.As(err, &aErr) {
		return aErr.StatusCode >= 500 && aErr.StatusCode < 600
	}

	return false
}

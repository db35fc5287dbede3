package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured means no usable reasoning provider is configured.
	// Callers treat it as "use the local heuristic", never as a failure.
	ErrNotConfigured = errors.New("reasoning service not configured")

	// ErrFatalAPI marks provider errors that retrying cannot fix:
	// bad credentials, exhausted quota or billing problems.
	ErrFatalAPI = errors.New("fatal API error")
)

var fatalMarkers = []string{
	"credit balance",
	"quota",
	"billing",
	"invalid api key",
	"invalid_api_key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err looks like a non-retryable provider error.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range fatalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// wrapFatalError tags fatal provider errors with ErrFatalAPI and returns
// other errors unchanged.
func wrapFatalError(err error) error {
	if !isFatalAPIError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatalAPI, err)
}

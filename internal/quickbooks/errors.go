package quickbooks

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the OAuth client credentials are missing.
	ErrNotConfigured = errors.New("quickbooks credentials not configured")

	// ErrNotConnected means no usable connection exists: either nothing is
	// stored or the refresh token no longer works and the shop must
	// re-authorize.
	ErrNotConnected = errors.New("quickbooks is not connected")
)

// APIError is any non-2xx response from the QuickBooks API. The body is kept
// verbatim so operators see exactly what Intuit returned.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quickbooks API returned status %d: %s", e.StatusCode, e.Body)
}

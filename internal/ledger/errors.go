package ledger

import "errors"

// Delivery error taxonomy. Both are terminal for a single attempt: the
// client never retries on its own beyond the single refresh-and-retry on
// an expired credential.
var (
	// ErrUnauthenticated means no usable credential exists, even after one
	// refresh attempt. Callers must not retry; there is nothing useful to
	// retry with.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrDeliveryFailed wraps network and non-auth server failures. Retry
	// and backoff, if desired, are the caller's responsibility.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// IsUnauthenticated reports whether err is an authentication failure.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

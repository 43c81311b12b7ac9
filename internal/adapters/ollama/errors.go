package ollama

import "errors"

// Permanent failure classes. Anything else coming out of a generate round trip
// (timeouts, refused connections, 5xx) is transient and eligible for retry.
var (
	ErrModelNotFound = errors.New("model not found")
	ErrBadRequest    = errors.New("bad request")
)

func isPermanent(err error) bool {
	return errors.Is(err, ErrModelNotFound) || errors.Is(err, ErrBadRequest)
}

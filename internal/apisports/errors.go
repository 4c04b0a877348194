package apisports

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError is a failed HTTP exchange: non-2xx status, connection
// error or timeout. Callers skip the affected fixture and continue.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	return fmt.Sprintf("transport error: status %d: %s", e.Status, truncate(e.Body, 200))
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProviderError is a 2xx response whose body carries a non-empty errors
// field (quota exhausted, bad key). It poisons the whole batch: remaining
// fixtures will fail the same way, so callers should abort instead of
// burning quota one fixture at a time.
type ProviderError struct {
	Messages []string
}

func (e *ProviderError) Error() string {
	return "provider error: " + strings.Join(e.Messages, "; ")
}

// IsProviderError reports whether err wraps a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

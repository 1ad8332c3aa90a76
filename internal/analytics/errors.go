package analytics

import "fmt"

// TransportError wraps a network-level failure (DNS, connect, timeout)
// reaching the analytics service.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("analytics: request %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response. Body carries the (bounded) response text
// so callers can surface it verbatim.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("analytics: %s returned %d", e.Path, e.Status)
	}
	return fmt.Sprintf("analytics: %s returned %d: %s", e.Path, e.Status, e.Body)
}

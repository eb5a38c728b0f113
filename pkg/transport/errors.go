package transport

import "fmt"

// TransientNetworkError is a failure that may succeed when tried again:
// refused connections, timeouts, and authentication that still fails after
// one token refresh.
type TransientNetworkError struct {
	Op  string
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("%s: transient network error: %v", e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

// AuthError is a 401 from the collector.
type AuthError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: unauthorized (%d): %s", e.Op, e.StatusCode, e.Body)
}

// ClientError is a 4xx other than 401. It is never retried.
type ClientError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: request rejected (%d): %s", e.Op, e.StatusCode, e.Body)
}

// ServerError is a 5xx. It is retried like a transient failure.
type ServerError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server error (%d): %s", e.Op, e.StatusCode, e.Body)
}

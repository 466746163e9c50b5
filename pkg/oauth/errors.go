package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrBind is returned when the callback port cannot be bound. It is fatal
	// for the attempt and never retried.
	ErrBind = errors.New("callback port unavailable")

	// ErrNoCode is returned when the callback arrived without an authorization code.
	ErrNoCode = errors.New("no code received")

	// ErrTimeout is returned when no callback arrived within the timeout window.
	ErrTimeout = errors.New("auth timeout")

	// ErrStopped is returned by Wait when the server was stopped before any
	// callback or timeout resolved it.
	ErrStopped = errors.New("callback server stopped")
)

// TransportError reports a network-level failure while talking to the
// provider (connection refused, DNS failure, client timeout).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExchangeError reports that the provider rejected the key exchange. Body is
// the raw response body, kept as diagnostic text.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("key exchange failed: %s", e.Body)
	}
	return fmt.Sprintf("key exchange failed (status %d): %s", e.StatusCode, e.Body)
}

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsExchangeError reports whether err is, or wraps, an *ExchangeError.
func IsExchangeError(err error) bool {
	var exchangeErr *ExchangeError
	return errors.As(err, &exchangeErr)
}

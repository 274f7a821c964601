package exchange

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported is returned for operations an exchange does not offer.
	ErrNotSupported = errors.New("operation not supported")
	// ErrBadSymbol is returned when a symbol is not present in the catalog.
	ErrBadSymbol = errors.New("unknown symbol")
	// ErrInvalidOrder is returned when order arguments are rejected before
	// any request is made.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrMissingField marks a required response field that was absent.
	ErrMissingField = errors.New("missing field")
)

// NetworkError wraps a transport failure reported by the Runtime.
type NetworkError struct {
	Exchange string
	Method   string
	URL      string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error on %s %s: %v", e.Exchange, e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is returned when a private call is attempted without the
// credentials the exchange requires. No request is sent.
type AuthError struct {
	Exchange string
	Reason   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication error: %s", e.Exchange, e.Reason)
}

// ParseError reports a response that could not be normalized. Raw holds
// the offending payload.
type ParseError struct {
	Exchange string
	Kind     string
	Raw      []byte
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s: %v", e.Exchange, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExchangeError is an explicit error reported by the remote side, either as
// an HTTP error status or as an error payload. Body is the raw response.
type ExchangeError struct {
	Exchange string
	Status   int
	Message  string
	Body     []byte
}

func (e *ExchangeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: exchange error (status %d): %s", e.Exchange, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: exchange error (status %d): %s", e.Exchange, e.Status, truncate(e.Body, 256))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// NewParseError builds a ParseError for the given response kind.
func NewParseError(exchange, kind string, raw []byte, err error) *ParseError {
	return &ParseError{Exchange: exchange, Kind: kind, Raw: raw, Err: err}
}

// MissingField returns an error wrapping ErrMissingField.
func MissingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}

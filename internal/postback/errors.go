package postback

import (
	"errors"
	"fmt"
)

// Error kind names used in status annotations. Failed identifiers carry
// their kind in the output CSV ("Error: <kind> - <message>"), so these are
// part of the output contract, not just log vocabulary.
const (
	// KindProtocol marks a required hidden field missing from a page:
	// either the site layout changed or a stale token was replayed.
	KindProtocol = "ProtocolError"

	// KindNetwork marks a transport failure or a non-2xx response.
	KindNetwork = "NetworkError"

	// KindParse marks any other failure while interpreting a response.
	KindParse = "ParseError"
)

// ProtocolError indicates a required hidden field was not found on a page.
// This is fatal for the unit of work being processed: without the field the
// next postback would be rejected by the server, so no partially-built
// payload is ever returned.
type ProtocolError struct {
	// Field is the name of the missing hidden field.
	Field string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("required hidden field %s not found on page", e.Field)
}

// RequestError indicates a transport failure or an unexpected HTTP status.
type RequestError struct {
	// Method is the HTTP method of the failed request.
	Method string

	// URL is the request URL.
	URL string

	// StatusCode is the response status, or zero when the request never
	// produced a response.
	StatusCode int

	// Err is the underlying transport error, nil for status failures.
	Err error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// Unwrap returns the underlying transport error, if any.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Kind maps an error to its taxonomy name for status annotations.
func Kind(err error) string {
	var protocolErr *ProtocolError
	if errors.As(err, &protocolErr) {
		return KindProtocol
	}
	var requestErr *RequestError
	if errors.As(err, &requestErr) {
		return KindNetwork
	}
	return KindParse
}

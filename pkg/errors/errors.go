package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the different kinds of failure the scraper distinguishes
type ErrorType string

const (
	// ErrorTypeNetwork means no response at all (DNS, TLS, connection reset, timeout)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeHTTPStatus means the server answered with a failure status other than 404
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeNotFound is a 404, which for a thread page means archived or removed
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeParsing means the body could not be read as an HTML document
	ErrorTypeParsing ErrorType = "parsing"

	ErrorTypeAggregatorMiss      ErrorType = "aggregator_miss"
	ErrorTypeAggregatorNoLink    ErrorType = "aggregator_no_link"
	ErrorTypeCandidatesExhausted ErrorType = "candidates_exhausted"
	ErrorTypeFilesystem          ErrorType = "filesystem"
	ErrorTypeUnknown             ErrorType = "unknown"
)

// Error is the typed error returned by the fetcher, resolver and download engine
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s error (code %d): %s [%s]", e.Type, e.Code, e.Message, e.URL)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unreachable builds a network error for a request that got no response
func Unreachable(url string, err error) *Error {
	return &Error{
		Type:    ErrorTypeNetwork,
		Message: fmt.Sprintf("network error: %v", err),
		URL:     url,
		Err:     err,
	}
}

// HTTPStatus builds the error for a failure status code. 404 maps to ErrorTypeNotFound.
func HTTPStatus(url string, code int) *Error {
	errType := ErrorTypeHTTPStatus
	if code == http.StatusNotFound {
		errType = ErrorTypeNotFound
	}
	return &Error{
		Type:    errType,
		Message: http.StatusText(code),
		Code:    code,
		URL:     url,
	}
}

// Parsing builds the error for a body that is not a usable HTML document
func Parsing(url string, err error) *Error {
	return &Error{
		Type:    ErrorTypeParsing,
		Message: fmt.Sprintf("failed to parse document: %v", err),
		URL:     url,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown if err is not an *Error
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsNotFound reports whether err is a 404
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsUnreachable reports whether err is a network error. A parsing failure counts
// as unreachable for control flow.
func IsUnreachable(err error) bool {
	t := TypeOf(err)
	return t == ErrorTypeNetwork || t == ErrorTypeParsing
}

// IsRetryable checks if an error type should be retried. Only connection-level
// failures are; a server that answered with an error status is not asked again.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

package netkit

import (
	"context"
	"errors"
	"strconv"
)

// ---------------------------------------------------------------------------
// NetworkError: failures raised by the client
// ---------------------------------------------------------------------------

// ErrorKind tags the variant of a [NetworkError].
type ErrorKind int

const (
	// KindInvalidURL means the endpoint did not resolve to a valid URL.
	KindInvalidURL ErrorKind = iota + 1
	// KindNoData means the transport produced no response metadata or body.
	KindNoData
	// KindDecoding means the body did not match the expected shape.
	KindDecoding
	// KindServer means the HTTP status was outside [200,299].
	KindServer
	// KindUnknown wraps a transport failure surfaced through the
	// result-style handler.
	KindUnknown
	// KindMaxRetriesExceeded means every attempt failed; Err holds the last
	// failure.
	KindMaxRetriesExceeded
)

// NetworkError is the failure type of [Client]. Compare against the
// sentinels with [errors.Is]; inspect fields with [errors.As].
type NetworkError struct {
	// Err is the underlying cause: the transport error for KindUnknown,
	// the last attempt's error for KindMaxRetriesExceeded, the decoder
	// error for KindDecoding. It never appears in Error().
	Err        error
	Kind       ErrorKind
	StatusCode int
}

// Sentinels matched by kind through [NetworkError.Is].
var (
	ErrInvalidURL         error = &NetworkError{Kind: KindInvalidURL}
	ErrNoData             error = &NetworkError{Kind: KindNoData}
	ErrDecoding           error = &NetworkError{Kind: KindDecoding}
	ErrServer             error = &NetworkError{Kind: KindServer}
	ErrUnknown            error = &NetworkError{Kind: KindUnknown}
	ErrMaxRetriesExceeded error = &NetworkError{Kind: KindMaxRetriesExceeded}
)

// ServerError reports an HTTP status outside the success range.
func ServerError(statusCode int) *NetworkError {
	return &NetworkError{Kind: KindServer, StatusCode: statusCode}
}

// Unknown wraps a transport-level failure.
func Unknown(err error) *NetworkError {
	return &NetworkError{Kind: KindUnknown, Err: err}
}

// DecodingError wraps a decoder failure.
func DecodingError(err error) *NetworkError {
	return &NetworkError{Kind: KindDecoding, Err: err}
}

// MaxRetriesExceeded wraps the error of the final attempt.
func MaxRetriesExceeded(last error) *NetworkError {
	return &NetworkError{Kind: KindMaxRetriesExceeded, Err: last}
}

// Error returns the human-readable description of the variant. Messages
// are fixed per kind; only the status code or the cause's own message is
// interpolated.
func (e *NetworkError) Error() string {
	switch e.Kind {
	case KindInvalidURL:
		return "invalid URL"
	case KindNoData:
		return "no data received from the server"
	case KindDecoding:
		return "failed to decode the response"
	case KindServer:
		return "server error with status code: " + strconv.Itoa(e.StatusCode)
	case KindUnknown:
		if e.Err != nil {
			return e.Err.Error()
		}

		return "unknown error"
	case KindMaxRetriesExceeded:
		if e.Err != nil {
			return "max retries exceeded, last error: " + e.Err.Error()
		}

		return "max retries exceeded"
	default:
		return "network error"
	}
}

// Unwrap returns the underlying cause.
func (e *NetworkError) Unwrap() error { return e.Err }

// Is matches another *NetworkError of the same kind. A target carrying a
// status code only matches that exact code.
func (e *NetworkError) Is(target error) bool {
	var t *NetworkError
	if !errors.As(target, &t) {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// IsRetryable reports whether this variant may be retried given the set of
// retryable HTTP status codes.
func (e *NetworkError) IsRetryable(retryableStatusCodes map[int]struct{}) bool {
	switch e.Kind {
	case KindNoData, KindUnknown:
		return true
	case KindServer:
		_, ok := retryableStatusCodes[e.StatusCode]
		return ok
	default:
		return false
	}
}

// StatusCode extracts the HTTP status from a server error anywhere in err's
// chain.
func StatusCode(err error) (int, bool) {
	var ne *NetworkError
	for errors.As(err, &ne) {
		if ne.Kind == KindServer {
			return ne.StatusCode, true
		}

		err = ne.Err
	}

	return 0, false
}

// ---------------------------------------------------------------------------
// TransportError: lower-level failures reported by a Transport
// ---------------------------------------------------------------------------

// TransportErrorKind classifies a transport failure.
type TransportErrorKind int

const (
	// TransportOther is any failure not covered below; never retried.
	TransportOther TransportErrorKind = iota
	// TransportTimeout means the request or connection timed out.
	TransportTimeout
	// TransportHostUnreachable means the host could not be reached or
	// refused the connection.
	TransportHostUnreachable
	// TransportConnectionLost means an established connection dropped.
	TransportConnectionLost
	// TransportDNSFailure means name resolution failed.
	TransportDNSFailure
	// TransportNotConnected means the local network is down.
	TransportNotConnected
	// TransportTLSHandshake means the secure connection could not be set up.
	TransportTLSHandshake
)

var transportKindNames = map[TransportErrorKind]string{
	TransportOther:           "transport failure",
	TransportTimeout:         "timed out",
	TransportHostUnreachable: "host unreachable",
	TransportConnectionLost:  "connection lost",
	TransportDNSFailure:      "dns lookup failed",
	TransportNotConnected:    "not connected",
	TransportTLSHandshake:    "tls handshake failed",
}

// String returns a short name for the kind.
func (k TransportErrorKind) String() string {
	if s, ok := transportKindNames[k]; ok {
		return s
	}

	return "transport failure"
}

// TransportError is returned by a [Transport] when no HTTP response was
// obtained.
type TransportError struct {
	Err  error
	Kind TransportErrorKind
}

// Error returns the kind name followed by the cause.
func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}

	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error { return e.Err }

// IsRetryable reports whether the failure is worth another attempt.
func (e *TransportError) IsRetryable() bool {
	switch e.Kind {
	case TransportTimeout,
		TransportHostUnreachable,
		TransportConnectionLost,
		TransportDNSFailure,
		TransportNotConnected,
		TransportTLSHandshake:
		return true
	default:
		return false
	}
}

// IsCanceled reports whether err is a context cancellation or deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

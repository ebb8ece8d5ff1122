package clickup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies why a ClickUp call failed.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindRateLimited  ErrorKind = "rate_limited"
	KindBadRequest   ErrorKind = "bad_request"
	KindServer       ErrorKind = "server"
	KindTimeout      ErrorKind = "timeout"
	KindMalformed    ErrorKind = "malformed"
	KindTransport    ErrorKind = "transport"
)

// ErrMissingAPIKey is returned by NewClient when no API key is configured.
var ErrMissingAPIKey = errors.New("ClickUp API key is required")

// APIError is returned for every failed ClickUp call.
type APIError struct {
	Method     string
	Path       string
	StatusCode int // 0 when no response was received
	Kind       ErrorKind
	// Message is ClickUp's "err" field, or a description of the local failure.
	Message string
	// Code is ClickUp's "ECODE" field, e.g. ITEM_015.
	Code string
	Err  error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		msg := fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Message)
		if e.Code != "" {
			msg += " (" + e.Code + ")"
		}
		return msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// kindForStatus maps an HTTP status code to an ErrorKind.
func kindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusUnauthorized:
		return KindUnauthorized
	case code == http.StatusForbidden:
		return KindForbidden
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500:
		return KindServer
	default:
		return KindBadRequest
	}
}

// transportError classifies an error from http.Client.Do.
func transportError(method, path string, err error) *APIError {
	apiErr := &APIError{Method: method, Path: path, Kind: KindTransport, Message: "request failed", Err: err}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		apiErr.Kind = KindTimeout
		apiErr.Message = "request timed out"
	}
	return apiErr
}

// KindOf returns the ErrorKind of err, or "" when err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a ClickUp 404.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

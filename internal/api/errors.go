package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoData is returned when a successful envelope carries no data.
	ErrNoData = errors.New("no data returned")

	// ErrSessionExpired is returned to every request waiting on a token
	// refresh that failed. The session has been cleared by then.
	ErrSessionExpired = errors.New("session expired")

	// ErrClientClosed is returned to requests still waiting on a refresh
	// when the client shuts down.
	ErrClientClosed = errors.New("api client closed")
)

// APIError is a failure reported by the server, either through a non-2xx
// status or through the envelope's error field.
type APIError struct {
	// Status is the HTTP status code. An envelope error on a 200 keeps 200.
	Status int

	// Code and Details are copied from the envelope when present.
	Code    string
	Details any

	// Message is the server's message, or the operation's fallback text
	// when the server sent none.
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// AsAPIError returns the APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401 that survived the refresh
// retry, or a failed refresh.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrSessionExpired) {
		return true
	}
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusNotFound
}

// Message extracts the text to show a user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Message
	}
	if errors.Is(err, ErrSessionExpired) {
		return "Your session has expired. Please sign in again."
	}
	return err.Error()
}

// Package graph provides an HTTP client for the Microsoft Graph API
// covering the SharePoint document workflow: client-credentials token
// acquisition, site and drive resolution, folder creation, and content
// upload. Errors are classified into sentinels plus typed errors per
// workflow stage.
package graph

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, graph.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("graph: bad request")
	ErrUnauthorized = errors.New("graph: unauthorized")
	ErrForbidden    = errors.New("graph: forbidden")
	ErrNotFound     = errors.New("graph: not found")
	ErrConflict     = errors.New("graph: conflict")
	ErrThrottled    = errors.New("graph: throttled")
	ErrServerError  = errors.New("graph: server error")
)

// GraphError wraps a sentinel error with HTTP status code, request ID,
// and the API error message body for debugging.
type GraphError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *GraphError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("graph: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("graph: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// AuthError reports a token endpoint failure. It carries the identity
// provider's HTTP status and response body. Fatal for the enclosing
// upload attempt; there is no retry.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("graph: token request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// ResolutionError reports a site or drive lookup failure.
// Target names what was being resolved ("site" or "drive").
type ResolutionError struct {
	Target string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("graph: resolving %s: %v", e.Target, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// FolderError reports a failure while creating a path segment during
// folder ensure. Ancestor segments created before the failure are not
// rolled back.
type FolderError struct {
	Segment string
	Err     error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("graph: ensuring folder segment %q: %v", e.Segment, e.Err)
}

func (e *FolderError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

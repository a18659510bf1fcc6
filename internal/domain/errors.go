package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error types for consistent error handling across the client and the stub.

// APIError is the single normalized error shape the HTTP client produces.
// Status 0 means the request never got a response (transport failure or
// timeout); anything else is the HTTP status the server answered with.
type APIError struct {
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error: %s", e.Message)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// apiErrorBody mirrors the loose JSON error bodies the backend emits.
// "message" may be a string or an array of strings; when it is an array the
// first element is what gets shown to the user.
type apiErrorBody struct {
	Message json.RawMessage     `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// DecodeAPIError builds an APIError from a non-2xx response body.
// fallback is used when the body carries no usable message (typically the
// HTTP status text).
func DecodeAPIError(status int, body []byte, fallback string) *APIError {
	out := &APIError{Status: status, Message: fallback}
	if len(body) == 0 {
		return out
	}

	var raw apiErrorBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return out
	}
	out.Errors = raw.Errors

	if len(raw.Message) > 0 {
		var s string
		if err := json.Unmarshal(raw.Message, &s); err == nil && s != "" {
			out.Message = s
			return out
		}
		var list []string
		if err := json.Unmarshal(raw.Message, &list); err == nil && len(list) > 0 {
			out.Message = list[0]
			return out
		}
	}
	if raw.Error != "" {
		out.Message = raw.Error
	}
	return out
}

// IsNetwork reports whether err is a transport-level failure (no response).
func IsNetwork(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == 404 {
		return true
	}
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == 401 {
		return true
	}
	var ua *ErrUnauthorized
	return errors.As(err, &ua)
}

// --- Server-side typed errors (used by the stub backend) ---

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrConflict indicates a resource already exists (e.g. duplicate document
// number, or a second declaration for the same taxable year).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

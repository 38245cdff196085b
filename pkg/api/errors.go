package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a classified error. The set is closed: anything
// that cannot be placed into one of the named kinds is Internal.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation"
	KindUpstream     Kind = "upstream"
	KindInternal     Kind = "internal"
)

// Client-facing messages that must not vary with the underlying cause.
const (
	MessageUnauthorized       = "You cannot access this operation without a valid token!"
	MessageInvalidCredentials = "Invalid credentials!"
	MessageForbidden          = "You do not have permission to perform this operation!"
	MessageUpstream           = "An upstream service failed to respond!"
	MessageInternal           = "Something went wrong!"
)

// Kinds lists every kind in the taxonomy.
var Kinds = []Kind{KindNotFound, KindUnauthorized, KindForbidden, KindValidation, KindUpstream, KindInternal}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Message is safe to show to clients; Cause is
// kept for server-side logs and reporting only.
type Error struct {
	Kind         Kind
	Message      string
	ResourceType string
	ResourceID   string
	Cause        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// NewNotFoundError creates an Error for a resource that does not exist.
func NewNotFoundError(resourceType, id string) *Error {
	return &Error{
		Kind:         KindNotFound,
		Message:      fmt.Sprintf("%s with id %s was not found!", resourceType, id),
		ResourceType: resourceType,
		ResourceID:   id,
	}
}

// NewRouteNotFoundError creates an Error for a request no route matches.
func NewRouteNotFoundError(method, path string) *Error {
	return &Error{
		Kind:         KindNotFound,
		Message:      fmt.Sprintf("Route %s %s was not found!", method, path),
		ResourceType: "Route",
		ResourceID:   path,
	}
}

// NewUnauthorizedError creates an Error for a failed token verification.
// The client message is identical for every cause.
func NewUnauthorizedError(cause error) *Error {
	return &Error{Kind: KindUnauthorized, Message: MessageUnauthorized, Cause: cause}
}

// NewInvalidCredentialsError creates an Error for a rejected login.
func NewInvalidCredentialsError(cause error) *Error {
	return &Error{Kind: KindUnauthorized, Message: MessageInvalidCredentials, Cause: cause}
}

// NewForbiddenError creates an Error for an authenticated caller lacking permission.
func NewForbiddenError(message string) *Error {
	if message == "" {
		message = MessageForbidden
	}
	return &Error{Kind: KindForbidden, Message: message}
}

// NewValidationError creates an Error for malformed client input.
func NewValidationError(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: message, Cause: cause}
}

// NewUpstreamError creates an Error for a failed call to an external service.
func NewUpstreamError(message string, cause error) *Error {
	if message == "" {
		message = MessageUpstream
	}
	return &Error{Kind: KindUpstream, Message: message, Cause: cause}
}

// NewInternalError creates an Error for anything unexpected.
func NewInternalError(cause error) *Error {
	return &Error{Kind: KindInternal, Message: MessageInternal, Cause: cause}
}

// Classify returns the classified error in err's chain. Errors that carry no
// classification, or carry an unknown kind, become Internal.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		if !apiErr.Kind.known() {
			return NewInternalError(err)
		}
		return apiErr
	}
	return NewInternalError(err)
}

func (k Kind) known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

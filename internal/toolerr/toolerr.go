// Package toolerr defines the typed failures a tool call can surface to its caller.
package toolerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, machine-readable failure category.
type Kind string

// Failure kinds surfaced to protocol adapters.
const (
	KindUnknownTool      Kind = "unknown_tool"
	KindInvalidArguments Kind = "invalid_arguments"
	KindPermissionDenied Kind = "permission_denied"
	KindUpstreamFetch    Kind = "upstream_fetch_failure"
	KindInternal         Kind = "internal_error"
)

// JSON-RPC 2.0 error codes used when a transport needs a numeric code.
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// Error is a tool failure with a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	// Status carries the upstream HTTP status for KindUpstreamFetch, zero otherwise.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code maps the kind onto a JSON-RPC error code.
func (e *Error) Code() int {
	switch e.Kind {
	case KindUnknownTool:
		return CodeMethodNotFound
	case KindInvalidArguments, KindPermissionDenied:
		return CodeInvalidRequest
	default:
		return CodeInternalError
	}
}

// HTTPStatus maps the kind onto an HTTP status for REST callers.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnknownTool:
		return http.StatusNotFound
	case KindInvalidArguments:
		return http.StatusBadRequest
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindUpstreamFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UnknownTool reports a tool name missing from the registry.
func UnknownTool(name string) *Error {
	return &Error{Kind: KindUnknownTool, Message: fmt.Sprintf("unknown tool: %s", name)}
}

// InvalidArguments reports a missing or malformed argument.
func InvalidArguments(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArguments, Message: fmt.Sprintf(format, args...)}
}

// PermissionDenied reports a path disallowed by robots.txt.
func PermissionDenied(path string) *Error {
	return &Error{
		Kind:    KindPermissionDenied,
		Message: fmt.Sprintf("access to %s is not allowed by robots.txt", path),
	}
}

// UpstreamFetch wraps a failed page fetch. status is zero for network failures.
func UpstreamFetch(status int, err error) *Error {
	msg := "failed to reach source site"
	if status != 0 {
		msg = fmt.Sprintf("source site responded %d %s", status, http.StatusText(status))
	}
	return &Error{Kind: KindUpstreamFetch, Message: msg, Status: status, Err: err}
}

// Internal wraps anything unexpected.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As extracts an *Error from err, converting foreign errors into KindInternal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return Internal("unexpected failure", err)
}

// KindOf returns the kind of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}

// Body is the JSON error object handed to protocol clients.
type Body struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	// UpstreamStatus is set for upstream fetch failures that got an HTTP response.
	UpstreamStatus int `json:"upstream_status,omitempty"`
}

// Body renders e for clients. The wrapped cause is not included.
func (e *Error) Body() Body {
	return Body{
		Kind:           e.Kind,
		Code:           e.Code(),
		Message:        e.Message,
		UpstreamStatus: e.Status,
	}
}

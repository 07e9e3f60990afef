// Package errors carries typed API errors. A Code decides the HTTP status and
// how much of the error the client may see; everything else stays in logs.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
	CodePaymentFailed Code = "PAYMENT_FAILED"
)

// Metadata describes how a code is rendered. Public is the fallback message;
// ExposeMessage lets the caller's own message through instead.
type Metadata struct {
	Status        int
	Retryable     bool
	Public        string
	ExposeMessage bool
	ExposeDetails bool
}

var codeTable = map[Code]Metadata{
	CodeValidation:    {Status: http.StatusBadRequest, Public: "validation failed", ExposeMessage: true, ExposeDetails: true},
	CodeUnauthorized:  {Status: http.StatusUnauthorized, Public: "authentication required", ExposeMessage: true},
	CodeForbidden:     {Status: http.StatusForbidden, Public: "access denied", ExposeMessage: true},
	CodeNotFound:      {Status: http.StatusNotFound, Public: "resource not found", ExposeMessage: true},
	CodeConflict:      {Status: http.StatusConflict, Public: "conflict detected", ExposeMessage: true},
	CodeRateLimit:     {Status: http.StatusTooManyRequests, Public: "rate limit exceeded", ExposeMessage: true},
	CodePaymentFailed: {Status: http.StatusBadRequest, Public: "payment verification failed", ExposeMessage: true},
	CodeInternal:      {Status: http.StatusInternalServerError, Public: "internal server error", Retryable: true},
	CodeDependency:    {Status: http.StatusServiceUnavailable, Public: "dependency unavailable", Retryable: true},
}

// Meta returns the rendering rules for c. Unknown codes render as internal.
func (c Code) Meta() Metadata {
	if meta, ok := codeTable[c]; ok {
		return meta
	}
	return codeTable[CodeInternal]
}

func MetadataFor(code Code) Metadata { return code.Meta() }

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code to err. A nil err yields a plain New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails returns a copy of e carrying details. e itself is unchanged so
// package-level error values can be shared between requests.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.details = details
	return &cp
}

// PublicMessage is the message a client may see for e.
func (e *Error) PublicMessage() string {
	meta := e.Code().Meta()
	if meta.ExposeMessage && e.Message() != "" {
		return e.Message()
	}
	return meta.Public
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error with the same code. A target with a message must
// match it too, so New(CodeNotFound, "") acts as a code-only sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.code == t.code && (t.message == "" || t.message == e.message)
}

func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given typed code anywhere in its chain.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code && As(err) != nil
}

// CodeOf returns the outermost typed code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.code
	}
	return CodeInternal
}

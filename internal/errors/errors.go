package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Code codes.Code

const (
	// CodeInvalidArgument covers malformed quiz sources and bad request input.
	CodeInvalidArgument = Code(codes.InvalidArgument)
	// CodeNotFound covers missing quiz sources and unknown session IDs.
	CodeNotFound = Code(codes.NotFound)
	// CodeFailedPrecondition covers submitting with unanswered questions and
	// answering an already-submitted attempt.
	CodeFailedPrecondition = Code(codes.FailedPrecondition)
	// CodeOutOfRange covers answer indexes outside the attempt's questions.
	CodeOutOfRange = Code(codes.OutOfRange)
	// CodeAlreadyExists marks duplicate unique rows (achievements).
	CodeAlreadyExists = Code(codes.AlreadyExists)
	// CodeInternal covers storage-layer failures.
	CodeInternal = Code(codes.Internal)
)

var code2http = map[Code]int{
	CodeInvalidArgument:    http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeFailedPrecondition: http.StatusBadRequest,
	CodeOutOfRange:         http.StatusBadRequest,
	CodeAlreadyExists:      http.StatusConflict,
	CodeInternal:           http.StatusInternalServerError,
}

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	err     error
}

func New(code Code, opts ...Option) *Error {
	e := &Error{
		Code:    code,
		Message: codes.Code(code).String(),
	}

	for _, opt := range opts {
		opt.apply(e)
	}

	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
	if e.err != nil {
		s += fmt.Sprintf(", err: %s", e.err)
	}

	return s
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) GRPCStatus() *status.Status {
	return status.New(codes.Code(e.Code), e.Message)
}

func (e *Error) HTTPStatusCode() int {
	if c, ok := code2http[e.Code]; ok {
		return c
	}

	return http.StatusInternalServerError
}

// Convert wraps any error into *Error, defaulting to CodeInternal.
func Convert(err error) *Error {
	var e *Error
	if !errors.As(err, &e) {
		return Internal(err)
	}

	return e
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func Internal(err error) *Error {
	return New(CodeInternal, WithCause(err))
}

func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, WithMessagef(format, args...))
}

func InvalidArgument(format string, args ...any) *Error {
	return New(CodeInvalidArgument, WithMessagef(format, args...))
}

func FailedPrecondition(format string, args ...any) *Error {
	return New(CodeFailedPrecondition, WithMessagef(format, args...))
}

type Option interface {
	apply(*Error)
}

type optionFunc func(*Error)

func (f optionFunc) apply(e *Error) {
	f(e)
}

func WithCause(err error) Option {
	return optionFunc(func(e *Error) {
		e.err = err
	})
}

func WithMessagef(format string, args ...any) Option {
	return optionFunc(func(e *Error) {
		e.Message = fmt.Sprintf(format, args...)
	})
}

package apperror

import (
	"errors"
	"net/http"
)

type Code string

const (
	BadRequest       Code = "BAD_REQUEST"
	NotFound         Code = "NOT_FOUND"
	Internal         Code = "INTERNAL"
	Conflict         Code = "CONFLICT"
	Configuration    Code = "CONFIGURATION"
	Upstream         Code = "UPSTREAM"
	MalformedPayload Code = "MALFORMED_PAYLOAD"
	Delivery         Code = "DELIVERY"
)

type AppError struct {
	code    Code
	message string
	fields  map[string]string
	cause   error
}

func New(code Code, message string) *AppError {
	return &AppError{code: code, message: message}
}

// Wrap creates an AppError that carries cause for errors.Is / errors.As.
func Wrap(code Code, message string, cause error) *AppError {
	return &AppError{code: code, message: message, cause: cause}
}

// Validation creates a BadRequest error with per-field rejection messages.
func Validation(fields map[string]string) *AppError {
	return &AppError{code: BadRequest, message: "validation failed", fields: fields}
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *AppError) Unwrap() error             { return e.cause }
func (e *AppError) Code() Code                { return e.code }
func (e *AppError) Message() string           { return e.message }
func (e *AppError) Fields() map[string]string { return e.fields }

func (e *AppError) HTTPStatus() int {
	switch e.code {
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Upstream, MalformedPayload, Delivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the code of the first AppError in err's chain, or Internal.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.code
	}
	return Internal
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code Code) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.code == code
}

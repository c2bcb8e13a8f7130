package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure so the handler layer can translate it to an
// HTTP status without inspecting error strings.
type ErrorKind int

const (
	// KindValidation covers bad or missing request fields, including
	// categorical labels absent from the encoding table.
	KindValidation ErrorKind = iota
	// KindInvalidModel covers a non-empty model_name outside the served
	// enumeration.
	KindInvalidModel
	// KindNotFound covers a missing backing file or model key.
	KindNotFound
	// KindInference covers model invocation failures, including non-finite
	// outputs.
	KindInference
	// KindData covers malformed datasets and result files.
	KindData
)

// AppError carries the failing operation, a human-facing message, the error
// kind, and the underlying cause.
type AppError struct {
	Op   string
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error kind to its HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindInvalidModel:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func NewAppError(op string, kind ErrorKind, msg string, err error) error {
	return &AppError{Op: op, Kind: kind, Msg: msg, Err: err}
}

// AsAppError unwraps err into an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

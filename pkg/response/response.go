package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST     ErrCode = "REQUEST_FAILED"
	BAD_REQUEST        ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND          ErrCode = "NOT_FOUND"
	LOCKED             ErrCode = "LOCKED"
	CONFLICT           ErrCode = "CONFLICT"
	INVALID_TRANSITION ErrCode = "INVALID_TRANSITION"
	STALE_VERSION      ErrCode = "STALE_VERSION"
	INVALID_INTERVAL   ErrCode = "INVALID_INTERVAL"
	SESSION_FULL       ErrCode = "SESSION_FULL"
	ALREADY_ENROLLED   ErrCode = "ALREADY_ENROLLED"
	UNAUTHORIZED       ErrCode = "UNAUTHORIZED"
	FORBIDDEN          ErrCode = "FORBIDDEN"
)

var (
	ErrBadRequest        = errors.New("bad request")
	ErrNotFound          = errors.New("resource not found")
	ErrTimeout           = errors.New("calendar is locked, try again")
	ErrConflict          = errors.New("booking conflict")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrStaleVersion      = errors.New("stale booking version")
	ErrInvalidInterval   = errors.New("invalid time interval")
	ErrSessionFull       = errors.New("session is full")
	ErrAlreadyEnrolled   = errors.New("already enrolled")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsg []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is required", err.Field()))
		case "min":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be at least %s", err.Field(), err.Param()))
		case "max":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be at most %s", err.Field(), err.Param()))
		default:
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is invalid", err.Field()))
		}
	}

	return Response{
		ResponseError: ResponseError{
			Code:    string(BAD_REQUEST),
			Message: strings.Join(errMsg, ", "),
		},
	}
}

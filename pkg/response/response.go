package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error Codes
type ErrCode string

var (
	FAILED_REQUEST  ErrCode = "REQUEST_FAILED"
	BAD_REQUEST     ErrCode = "FAILED_TO_DECODE"
	INVALID_FIELD   ErrCode = "INVALID_FIELD"
	NOT_FOUND       ErrCode = "NOT_FOUND"
	LOCKED          ErrCode = "LOCKED"
	CONFLICT        ErrCode = "CONFLICT"
	UNAUTHENTICATED ErrCode = "MISSING_USER"
)

var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotFound      = errors.New("resource not found")
	ErrLocked        = errors.New("resource is locked")
	ErrConflict      = errors.New("conflict")
	ErrMissingID     = errors.New("record has no _id")
	ErrInvalidStatus = errors.New("invalid status")
	ErrUnknownEvent  = errors.New("unknown event")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

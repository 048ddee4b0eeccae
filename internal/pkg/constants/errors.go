package constants

import "net/http"

// CodedError is an error that knows which HTTP status it maps to.
type CodedError struct {
	msg  string
	code int
}

func NewCodedError(msg string, code int) *CodedError {
	return &CodedError{msg: msg, code: code}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Code() int {
	return e.code
}

var (
	ErrDBNotFound        = NewCodedError("not found", http.StatusNotFound)
	ErrBadRequest        = NewCodedError("bad request", http.StatusBadRequest)
	ErrUnauthorized      = NewCodedError("unauthorized", http.StatusUnauthorized)
	ErrMissingAuthCookie = NewCodedError("missing auth token", http.StatusUnauthorized)
	ErrForbidden         = NewCodedError("forbidden", http.StatusForbidden)

	// ErrFacetInconsistent means the facet aggregate vanished between the
	// insert attempt and the locked read twice in a row.
	ErrFacetInconsistent = NewCodedError("result facet is in an inconsistent state", http.StatusInternalServerError)
)

var ErrAlreadyExists = NewCodedError("already exists", http.StatusConflict)

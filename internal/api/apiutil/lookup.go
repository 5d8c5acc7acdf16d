package apiutil

import (
	"database/sql"
	"errors"
	"net/http"
)

// LookupError converts a failed row lookup into a HandlerError. Missing rows
// get status and notFound; anything else is a 500 with failure.
func LookupError(err error, status int, notFound, failure string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return HandlerError{Status: status, Message: notFound, Err: err}
	}
	return HandlerError{Status: http.StatusInternalServerError, Message: failure, Err: err}
}

// QueryError wraps a query failure as a 400 for malformed query parameters.
func QueryError(err error) error {
	return HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
}

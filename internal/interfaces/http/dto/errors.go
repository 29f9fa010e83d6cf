package dto

import (
	"errors"
	"net/http"

	"github.com/estatecrm/backend/internal/domain/shared"
)

// Domain error codes recognized by the HTTP layer.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeAlreadyExists  = "ALREADY_EXISTS"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeInvalidID      = "INVALID_ID"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeSessionRevoked = "SESSION_REVOKED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes. The
// statuses are a client compatibility contract.
var errorCodeHTTPStatus = map[string]int{
	CodeNotFound:       http.StatusNotFound,
	CodeAlreadyExists:  http.StatusConflict,
	CodeInvalidInput:   http.StatusBadRequest,
	CodeInvalidID:      http.StatusBadRequest,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeForbidden:      http.StatusForbidden,
	CodeSessionRevoked: http.StatusUnauthorized,
	CodeRateLimited:    http.StatusTooManyRequests,
	CodeInternal:       http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for a domain error code, defaulting
// to 500 for unknown codes.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError maps any error to its status code and envelope. Unknown errors
// become a 500; their detail is only exposed when development is true.
// Every 401 envelope carries the jwtExpired re-authenticate flag.
func FromError(err error, development bool) (int, Response) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := GetHTTPStatus(domainErr.Code)
		if status == http.StatusUnauthorized {
			return status, NewAuthErrorResponse(domainErr.Message)
		}
		return status, NewErrorResponse(domainErr.Message)
	}

	message := "An unexpected error occurred"
	if development && err != nil {
		message = err.Error()
	}
	return http.StatusInternalServerError, NewErrorResponse(message)
}

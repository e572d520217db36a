package backend

import (
	"errors"
	"fmt"
	"net/http"

	"chapel/internal/models"
)

// ErrNetwork wraps transport failures: the request never got an API answer.
var ErrNetwork = errors.New("backend unreachable")

// APIError is a decoded error response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func hasStatus(err error, status int, code string) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	return apiErr.Status == status || (code != "" && apiErr.Code == code)
}

// IsNotFound reports a 404 / NOT_FOUND answer.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound, models.CodeNotFound) }

// IsForbidden reports a 403 / FORBIDDEN answer.
func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden, models.CodeForbidden) }

// IsUnauthorized reports a 401 / UNAUTHORIZED answer.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized, models.CodeUnauthorized)
}

// IsConflict reports a 409 / CONFLICT answer.
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict, models.CodeConflict) }

// IsValidation reports a 400 / VALIDATION_ERROR answer.
func IsValidation(err error) bool {
	return hasStatus(err, http.StatusBadRequest, models.CodeValidation)
}

// IsRateLimited reports a 429 / RATE_LIMITED answer.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests, models.CodeRateLimited)
}

// IsNetwork reports a transport failure.
func IsNetwork(err error) bool { return errors.Is(err, ErrNetwork) }

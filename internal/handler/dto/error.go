package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hotelops/taskrouter/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error
// codes, so a client can explain why an operation was rejected.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", message
	case errors.Is(err, domain.ErrStaffNotFound):
		return http.StatusNotFound, "STAFF_NOT_FOUND", message
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", message
	case errors.Is(err, domain.ErrGracePeriodExpired):
		return http.StatusConflict, "GRACE_PERIOD_EXPIRED", message
	case errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict, "CONCURRENT_MODIFICATION", message
	case errors.Is(err, domain.ErrNoEligibleStaff):
		return http.StatusUnprocessableEntity, "NO_ELIGIBLE_STAFF", message
	case errors.Is(err, domain.ErrFollowUpExists):
		return http.StatusConflict, "FOLLOW_UP_EXISTS", message

	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message
	case errors.Is(err, domain.ErrNotAssignee):
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message

	case errors.Is(err, domain.ErrStaffInactive):
		return http.StatusUnauthorized, "STAFF_INACTIVE", message
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", message

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidDepartment),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrMissingHandoffTarget):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}

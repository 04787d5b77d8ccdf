package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int            `json:"status"`
	Code      string         `json:"code"`    // Error code: bad_request, NO_RESULTS_FOUND, etc.
	Message   string         `json:"message"` // Human-readable message
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// domainError maps a domain error to an HTTP status and renders it.
// Caller mistakes are 4xx, collaborator failures surface as 502 so
// clients can tell our bugs apart from upstream outages.
func domainError(c *fiber.Ctx, derr *domain.Error) error {
	reqID, _ := c.Locals("requestid").(string)
	status := statusForCode(derr.Code)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      string(derr.Code),
		Message:   derr.Message,
		Details:   derr.Details,
		Retryable: derr.Retryable,
		RequestID: reqID,
	})
}

// errFromDomain renders err as a domain error when it is one, else 500.
func errFromDomain(c *fiber.Ctx, err error) error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return domainError(c, derr)
	}
	return errInternal(c, err.Error())
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.ErrInvalidInput, domain.ErrMissingRequiredField,
		domain.ErrInvalidCoordinates, domain.ErrInvalidTimeConstraint:
		return fiber.StatusBadRequest
	case domain.ErrNoResultsFound:
		return fiber.StatusNotFound
	case domain.ErrTimeConstraintExceeded, domain.ErrTooManyResults:
		return fiber.StatusUnprocessableEntity
	case domain.ErrGeocodingFailed, domain.ErrIsochroneFailed,
		domain.ErrPOISearchFailed, domain.ErrRoutingFailed,
		domain.ErrOptimizationFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

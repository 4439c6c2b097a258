package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sacredsites/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, unknown_facet, upstream_error, internal_error
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
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

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errFromDomain maps a service error onto a response.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrUnknownFacet):
		return newError(c, fiber.StatusBadRequest, "unknown_facet", err.Error())
	case errors.Is(err, domain.ErrFacetDisabled):
		return newError(c, fiber.StatusBadRequest, "facet_disabled", err.Error())
	case domain.IsFetchError(err):
		LoggerFromCtx(c.UserContext()).Error("upstream fetch failed", "error", err)
		return newError(c, fiber.StatusBadGateway, "upstream_error", "site data is temporarily unavailable")
	}
	LoggerFromCtx(c.UserContext()).Error("request failed", "error", err)
	return errInternal(c, "internal error")
}

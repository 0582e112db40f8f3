package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/cragtopo/internal/core/domain"
	"github.com/samirrijal/cragtopo/internal/pkg/i18n"
	"github.com/samirrijal/cragtopo/internal/topo"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message, in the negotiated language
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: RequestIDFromCtx(c.UserContext()),
	})
}

// msg translates key into the request language.
func msg(c *fiber.Ctx, key string, args ...any) string {
	cat, ok := c.Locals(localsCatalog).(*i18n.Catalog)
	if !ok {
		cat = i18n.Default()
	}
	return cat.T(requestLang(c), key, args...)
}

// errBadRequest returns a 400 error. detail is passed through untranslated.
func errBadRequest(c *fiber.Ctx, detail string) error {
	if detail == "" {
		detail = msg(c, "error.bad_request")
	}
	return newError(c, fiber.StatusBadRequest, "bad_request", detail)
}

// errNotFound returns a 404 error naming the entity ("crag", "route", "city").
func errNotFound(c *fiber.Ctx, entity string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg(c, "error.not_found", msg(c, "entity."+entity)))
}

// errInternal logs err and returns a 500 error without leaking it.
func errInternal(c *fiber.Ctx, err error) error {
	LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg(c, "error.internal"))
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="cragtopo"`)
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg(c, "error.unauthorized"))
}

// errForbidden returns a 403 error.
func errForbidden(c *fiber.Ctx) error {
	return newError(c, fiber.StatusForbidden, "forbidden", msg(c, "error.forbidden"))
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx) error {
	return newError(c, fiber.StatusConflict, "conflict", msg(c, "error.conflict"))
}

// errFromDomain maps a service error onto an APIError.
func errFromDomain(c *fiber.Ctx, err error, entity string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, entity)
	case errors.Is(err, domain.ErrValidation):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrInvalidTopo):
		return newError(c, fiber.StatusBadRequest, "bad_request", msg(c, "error.invalid_topo", topo.MaxPoints))
	case errors.Is(err, domain.ErrUnauthorized):
		return errUnauthorized(c)
	case errors.Is(err, domain.ErrForbidden):
		return errForbidden(c)
	case errors.Is(err, domain.ErrConflict):
		return errConflict(c)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusRequestTimeout, "timeout", msg(c, "error.timeout"))
	}
	return errInternal(c, err)
}

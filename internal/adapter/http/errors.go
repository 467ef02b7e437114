package http

import (
	"errors"

	"cv-builder/internal/model"
	"cv-builder/internal/usecase"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

// ErrValidation indicates a malformed request parameter.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return "validation error: " + e.Field + " - " + e.Message
}

// HTTPStatus returns the status code for an error returned by a handler.
func HTTPStatus(err error) int {
	var fe *fiber.Error
	var ve *ErrValidation
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.Is(err, usecase.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, usecase.ErrNotFinalStep), errors.Is(err, usecase.ErrExportInProgress):
		return fiber.StatusConflict
	case errors.Is(err, usecase.ErrInvalidStep),
		errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrCancelled),
		errors.Is(err, model.ErrInvalidCV),
		errors.Is(err, model.ErrInvalidIndex),
		errors.Is(err, model.ErrUnknownField):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// NewErrorHandler renders every handler error as {"error": message}.
// Internal errors are logged and not echoed back.
func NewErrorHandler(logger *log.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = log.Default()
	}
	return func(c *fiber.Ctx, err error) error {
		status := HTTPStatus(err)
		msg := err.Error()
		if status == fiber.StatusInternalServerError {
			logger.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
			msg = "internal server error"
		}
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
}

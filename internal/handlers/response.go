package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"jobportal/backend/internal/apperrors"
)

type envelope struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(envelope{Data: data, Message: message, Code: status})
}

// ErrorHandler renders every error returned by a handler in the response
// envelope. Internal errors are logged and their details withheld.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return respond(c, fe.Code, fe.Message, nil)
		}

		status := apperrors.HTTPStatus(err)
		var de *apperrors.DomainError
		if !errors.As(err, &de) || de.Type == apperrors.ErrTypeInternal {
			fields := []zap.Field{
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			}
			if de != nil && len(de.Stack) > 0 {
				fields = append(fields, zap.ByteString("stack", de.Stack))
			}
			logger.Error("request failed", fields...)
			return respond(c, fiber.StatusInternalServerError, "internal server error", nil)
		}

		if de.Type == apperrors.ErrTypeValidation {
			return respond(c, status, de.Message, fiber.Map{"errors": de.FieldErrors()})
		}
		return respond(c, status, de.Message, nil)
	}
}

func paramID(c *fiber.Ctx, name, resource string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound(resource+" not found", err)
	}
	return uint(id), nil
}

func queryID(c *fiber.Ctx, name string, v *apperrors.Violations) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		v.Add(name, "must be a positive integer")
		return nil
	}
	out := uint(id)
	return &out
}

func invalidBody(err error) error {
	return apperrors.New(apperrors.ErrTypeValidation, "invalid request payload", err)
}

package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Freeeeeet/activity_search/internal/apperr"
)

// jsonResponse отправляет ответ в общем формате {status, message, data}
func jsonResponse(c *fiber.Ctx, code int, status bool, message string, data interface{}) error {
	body := fiber.Map{
		"status":  status,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(code).JSON(body)
}

// statusFor выбирает HTTP-код для ошибки сервиса
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrScheduleNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrScheduleAlreadyExists):
		return fiber.StatusConflict
	case apperr.IsValidation(err):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler превращает ошибки хендлеров в JSON.
// Детали сбоев хранилища и прочих 500 остаются только в логах.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return jsonResponse(c, fe.Code, false, fe.Message, nil)
		}

		code := statusFor(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			logger.Error("Request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
			message = "internal server error"
		}

		return c.Status(code).JSON(fiber.Map{
			"status":  false,
			"message": message,
			"error": fiber.Map{
				"kind":  apperr.KindName(err),
				"field": apperr.FieldName(err),
			},
		})
	}
}

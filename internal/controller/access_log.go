package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AccessLog пишет одну строку на запрос. Ошибку цепочки отдаёт в ErrorHandler
// сразу, чтобы в лог попал итоговый статус.
func AccessLog(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if p, ok := PrincipalFrom(c); ok {
			fields = append(fields, zap.String("subject", p.Subject))
		}

		if status >= fiber.StatusInternalServerError {
			logger.Warn("HTTP request", fields...)
		} else {
			logger.Debug("HTTP request", fields...)
		}
		return nil
	}
}

package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/iabetor/creativespark/internal/content"
	"github.com/iabetor/creativespark/internal/keysource"
	"github.com/iabetor/creativespark/internal/studio"
)

// statusFor 将业务错误映射为 HTTP 状态码。
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, studio.ErrStale), errors.Is(err, studio.ErrPlaybackDisabled):
		return fiber.StatusConflict
	case errors.Is(err, content.ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, keysource.ErrNoKey), errors.Is(err, content.ErrConfiguration):
		return fiber.StatusUnauthorized
	case errors.Is(err, studio.ErrNoContent), errors.Is(err, studio.ErrNoAudio):
		return fiber.StatusNotFound
	case errors.Is(err, content.ErrParse), errors.Is(err, content.ErrGeneration), errors.Is(err, content.ErrNetwork):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// errorHandler 统一输出 {"error": ...}，5xx 记录日志。
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)

		if code >= fiber.StatusInternalServerError {
			log.Error("[server] 请求失败", zap.Error(err), zap.String("path", c.Path()), zap.Int("status", code))
		}

		msg := studio.UserMessage(err)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			msg = fe.Message
		}
		return c.Status(code).JSON(fiber.Map{
			"error": msg,
		})
	}
}

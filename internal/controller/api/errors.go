package api

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Freeeeeet/musicschool/internal/service"
)

// statusFor HTTP-статус для класса бизнес-ошибки
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return fiber.StatusBadRequest
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindForbidden:
		return fiber.StatusForbidden
	case service.KindConflict, service.KindUnavailable:
		return fiber.StatusConflict
	case service.KindTooEarly:
		return fiber.StatusTooEarly
	case service.KindEnded:
		return fiber.StatusGone
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError отдаёт ошибку сервиса клиенту. Внутренние ошибки логируются и не раскрываются.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	kind := service.KindOf(err)
	status := statusFor(kind)

	if kind == service.KindInternal {
		logger.Error("Request failed",
			zap.Error(err),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("request_id", requestID(c)),
		)
		return errorResponse(c, status, string(kind), "internal server error", nil)
	}

	var tooEarly *service.TooEarlyError
	if errors.As(err, &tooEarly) {
		return errorResponse(c, status, string(kind), "lesson cannot be joined yet", fiber.Map{
			"minutes_until_join": tooEarly.MinutesUntilJoin,
			"join_allowed_at":    tooEarly.JoinAllowedAt.Format(time.RFC3339),
		})
	}

	return errorResponse(c, status, string(kind), err.Error(), nil)
}

// writeValidationError ошибки validator/v10 по полям
func writeValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errorResponse(c, fiber.StatusBadRequest, string(service.KindValidation), err.Error(), nil)
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return errorResponse(c, fiber.StatusBadRequest, string(service.KindValidation), "validation failed", fields)
}

// fiberErrorHandler ошибки самого fiber (404 маршрута, 401 из auth) в том же формате
func fiberErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return errorResponse(c, fe.Code, errorCodeFor(fe.Code), fe.Message, nil)
		}
		return writeError(c, logger, err)
	}
}

func errorCodeFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return string(service.KindValidation)
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusForbidden:
		return string(service.KindForbidden)
	case fiber.StatusNotFound:
		return string(service.KindNotFound)
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	case fiber.StatusRequestTimeout:
		return "timeout"
	default:
		if status >= 500 {
			return string(service.KindInternal)
		}
		return "error"
	}
}

package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/middleware"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/repository"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/service"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/utils"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// sendDomainError maps the engine's error taxonomy onto HTTP statuses. It
// returns false when the error is not a known domain failure so callers can
// fall through to their internal-error path.
func sendDomainError(c *fiber.Ctx, err error) (bool, error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return true, utils.SendError(c, fiber.StatusForbidden, "unauthorized")
	case errors.Is(err, service.ErrNotMember):
		return true, utils.SendError(c, fiber.StatusForbidden, "not a class member")
	case errors.Is(err, service.ErrTaskNotFound):
		return true, utils.SendError(c, fiber.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return true, utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrClassNotFound):
		return true, utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrDeadlinePassed):
		return true, utils.SendError(c, fiber.StatusBadRequest, "deadline passed")
	case errors.Is(err, service.ErrAttemptsExhausted):
		return true, utils.SendError(c, fiber.StatusConflict, "attempts exhausted")
	case errors.Is(err, service.ErrAlreadyMember):
		return true, utils.SendError(c, fiber.StatusConflict, "already a class member")
	case errors.Is(err, service.ErrValidation):
		return true, utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrConflict):
		return true, utils.SendError(c, fiber.StatusConflict, "transaction conflict, retry")
	case isValidationError(err):
		return true, utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return false, nil
	}
}

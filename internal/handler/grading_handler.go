package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/dto"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/observability"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/service"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/utils"
)

// GradingHandler wires grade finalization and answer key routes.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to a class-scoped router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/submissions/:submissionId/grade", h.grade)
	router.Get("/tasks/:taskId/answers", h.answers)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	submissionID, err := parseUintParam(c, "submissionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.service.Grade(c.Context(), submissionID, payload, userIDFromContext(c), classID)
	if err != nil {
		observability.GradingOperations().WithLabelValues("error").Inc()
		return h.handleError(c, err)
	}

	observability.GradingOperations().WithLabelValues("success").Inc()
	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *GradingHandler) answers(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	answers, err := h.service.GetAnswers(c.Context(), taskID, classID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answers retrieved", answers)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	if handled, response := sendDomainError(c, err); handled {
		return response
	}
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

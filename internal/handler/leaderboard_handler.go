package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/service"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/utils"
)

// LeaderboardHandler wires the class standings route.
type LeaderboardHandler struct {
	service service.LeaderboardService
	logger  zerolog.Logger
}

// NewLeaderboardHandler constructs the handler.
func NewLeaderboardHandler(service service.LeaderboardService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
		logger:  logger.With().Str("component", "leaderboard_handler").Logger(),
	}
}

// Register attaches the leaderboard endpoint to a class-scoped router group.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("/leaderboard", h.get)
}

func (h *LeaderboardHandler) get(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	leaderboard, err := h.service.Get(c.Context(), classID, userIDFromContext(c))
	if err != nil {
		if handled, response := sendDomainError(c, err); handled {
			return response
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "leaderboard retrieved", leaderboard)
}

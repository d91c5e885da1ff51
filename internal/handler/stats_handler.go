package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/service"
	"github.com/gradeflow/gradeflow-api/internal/utils"
)

// StatsHandler exposes read-time dashboard aggregates.
type StatsHandler struct {
	service service.StatsService
	logger  zerolog.Logger
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(service service.StatsService, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger.With().Str("component", "stats_handler").Logger(),
	}
}

// RegisterTeacher attaches the teacher-facing stats routes.
func (h *StatsHandler) RegisterTeacher(router fiber.Router) {
	router.Get("/assignments/:id/stats", h.assignmentStats)
}

// RegisterStudent attaches the student-facing dashboard route.
func (h *StatsHandler) RegisterStudent(router fiber.Router) {
	router.Get("/dashboard", h.studentDashboard)
}

func (h *StatsHandler) assignmentStats(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.service.AssignmentStats(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
		}
		h.logger.Error().Err(err).Uint("assignment_id", id).Msg("failed to compute assignment stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute stats")
	}

	return utils.SendSuccess(c, "assignment stats computed", stats)
}

func (h *StatsHandler) studentDashboard(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if requested, err := parseQueryUint(c, "student_id"); err == nil && requested != nil {
		studentID = *requested
	}
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_id is required")
	}

	dashboard, err := h.service.StudentDashboard(c.Context(), studentID)
	if err != nil {
		h.logger.Error().Err(err).Uint("student_id", studentID).Msg("failed to build dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build dashboard")
	}

	return utils.SendSuccess(c, "dashboard computed", dashboard)
}

package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/dto"
	"github.com/gradeflow/gradeflow-api/internal/service"
	"github.com/gradeflow/gradeflow-api/internal/utils"
	"github.com/gradeflow/gradeflow-api/pkg/grader"
)

// GradingHandler wires the manual and automatic grading endpoints.
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

// Register attaches grading endpoints to the submissions group. The endpoint
// determines which grader runs; there is no runtime fallback between them.
func (h *GradingHandler) Register(router fiber.Router, aiLimiter fiber.Handler) {
	router.Post("/grade", h.gradeManual)
	router.Post("/heuristic-grade", h.gradeHeuristic)
	if aiLimiter != nil {
		router.Post("/ai-grade", aiLimiter, h.gradeAI)
	} else {
		router.Post("/ai-grade", h.gradeAI)
	}
}

func (h *GradingHandler) gradeManual(c *fiber.Ctx) error {
	var payload dto.ManualGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	actor := activityActorFromContext(c)
	submission, err := h.service.GradeManual(c.Context(), payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *GradingHandler) gradeAI(c *fiber.Ctx) error {
	return h.gradeAuto(c, h.service.GradeWithAI, "ai grading completed")
}

func (h *GradingHandler) gradeHeuristic(c *fiber.Ctx) error {
	return h.gradeAuto(c, h.service.GradeWithHeuristic, "heuristic grading completed")
}

func (h *GradingHandler) gradeAuto(c *fiber.Ctx, grade func(ctx context.Context, id uint, actor service.ActivityActor) (dto.GradeResultResponse, error), message string) error {
	var payload dto.AutoGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.SubmissionID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "submission_id is required")
	}

	actor := activityActorFromContext(c)
	result, err := grade(c.Context(), payload.SubmissionID, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, message, result)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrMarksOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, grader.ErrUpstreamRateLimited):
		return utils.SendError(c, fiber.StatusTooManyRequests, "the grading service is busy, please try again shortly")
	case errors.Is(err, grader.ErrUpstreamAuth):
		h.logger.Error().Err(err).Msg("ai grading credentials rejected")
		return utils.SendError(c, fiber.StatusBadGateway, "the grading service is misconfigured, contact an administrator")
	case errors.Is(err, grader.ErrUpstream):
		h.logger.Error().Err(err).Msg("ai grading failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "ai grading failed, please try again")
	default:
		h.logger.Error().Err(err).Msg("failed to grade submission")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade submission")
	}
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// GradedResultHandler exposes graded results, regrades and reconciliation.
type GradedResultHandler struct {
	results  service.GradedResultService
	regrades service.RegradeService
	logger   zerolog.Logger
}

// NewGradedResultHandler constructs the handler.
func NewGradedResultHandler(results service.GradedResultService, regrades service.RegradeService, logger zerolog.Logger) *GradedResultHandler {
	return &GradedResultHandler{
		results:  results,
		regrades: regrades,
		logger:   logger.With().Str("component", "graded_result_handler").Logger(),
	}
}

// Register attaches graded result routes to the router group.
func (h *GradedResultHandler) Register(router fiber.Router) {
	router.Get("/me", h.listMine)
	router.Get("/students/:id", staffOnly(h.listByStudent))
	router.Get("/:id", h.get)
	router.Patch("/:id/regrade", staffOnly(h.regrade))
}

// RegisterAssignmentRoutes attaches the per-assignment result views to the assignments group.
func (h *GradedResultHandler) RegisterAssignmentRoutes(router fiber.Router) {
	router.Get("/:id/results", staffOnly(h.listByAssignment))
	router.Get("/:id/reconcile", staffOnly(h.reconcile))
}

func (h *GradedResultHandler) listMine(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return unauthorized(c)
	}

	courseID, err := parseOptionalUintQuery(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	results, err := h.results.ListByStudent(c.UserContext(), studentID, courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "graded results retrieved", results)
}

func (h *GradedResultHandler) listByStudent(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	courseID, err := parseOptionalUintQuery(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	results, err := h.results.ListByStudent(c.UserContext(), studentID, courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "graded results retrieved", results)
}

func (h *GradedResultHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.results.Get(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "graded result retrieved", result)
}

func (h *GradedResultHandler) regrade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RegradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.regrades.Regrade(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "graded result updated", result)
}

func (h *GradedResultHandler) listByAssignment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.results.ListByAssignment(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "graded results retrieved", results)
}

func (h *GradedResultHandler) reconcile(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.results.Reconcile(c.UserContext(), id)
	if err != nil {
		var inconsistent *service.InconsistentStateError
		if errors.As(err, &inconsistent) {
			requestLogger(h.logger, c).Warn().Err(err).Uint("assignment_id", id).Msg("assignment state inconsistent")
			return utils.Fail(c, fiber.StatusConflict, inconsistent.Error(), report)
		}
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment consistent", report)
}

func (h *GradedResultHandler) handleError(c *fiber.Ctx, err error) error {
	return writeServiceError(c, h.logger, err)
}

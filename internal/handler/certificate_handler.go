package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// CertificateHandler exposes certificate listing, course completion and revocation.
type CertificateHandler struct {
	service service.CertificationService
	logger  zerolog.Logger
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(service service.CertificationService, logger zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		service: service,
		logger:  logger.With().Str("component", "certificate_handler").Logger(),
	}
}

// Register attaches certificate routes to the router group.
func (h *CertificateHandler) Register(router fiber.Router) {
	router.Get("/me", h.listMine)
	router.Post("/courses/:courseId", h.issueCourseCompletion)
	router.Patch("/:id/revoke", staffOnly(h.revoke))
}

func (h *CertificateHandler) listMine(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return unauthorized(c)
	}

	certificates, err := h.service.ListByStudent(c.UserContext(), studentID)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "certificates retrieved", certificates)
}

func (h *CertificateHandler) issueCourseCompletion(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID := userIDFromContext(c)
	if studentID == 0 {
		return unauthorized(c)
	}

	certificate, err := h.service.IssueCourseCompletion(c.UserContext(), studentID, courseID)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course certificate issued", certificate)
}

func (h *CertificateHandler) revoke(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	certificate, err := h.service.Revoke(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "certificate revoked", certificate)
}

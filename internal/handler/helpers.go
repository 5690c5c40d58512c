package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/middleware"
	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// fieldError describes a single failed validation rule.
type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

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

func parseOptionalUintQuery(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, err
	}
	id := uint(parsed)
	return &id, nil
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

func staffOnly(handler fiber.Handler) fiber.Handler {
	return middleware.WithAuth(handler, middleware.AuthOptions{Role: middleware.AuthRoleStaff})
}

func unauthorized(c *fiber.Ctx) error {
	return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
}

// writeServiceError maps service errors onto HTTP responses. Unknown errors are logged and hidden.
func writeServiceError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var (
		duplicate        *service.DuplicateSubmissionError
		validationErr    *service.ValidationError
		validationErrors validator.ValidationErrors
	)

	switch {
	case errors.As(err, &duplicate):
		return utils.Fail(c, fiber.StatusConflict, "submission already exists", dto.NewSubmissionResponse(duplicate.AssignmentID, duplicate.Submission))
	case errors.As(err, &validationErr):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request", validationDetails(validationErr.Err))
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request", validationDetails(err))
	case errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrGradedResultNotFound),
		errors.Is(err, service.ErrCertificateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrCourseNotCompleted),
		errors.Is(err, service.ErrCertificateRevoked),
		errors.Is(err, service.ErrConcurrentUpdate):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		return internalError(c, logger, err)
	}
}

func internalError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func validationDetails(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]fieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			details = append(details, fieldError{Field: fe.Namespace(), Rule: fe.Tag()})
		}
		return details
	}
	return fiber.Map{"error": err.Error()}
}

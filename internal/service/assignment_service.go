package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

const defaultAssignmentTotalMarks = 100

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	List(ctx context.Context, req dto.AssignmentListRequest, includeAnswers bool) (dto.AssignmentListResponse, error)
	Get(ctx context.Context, id uint, includeAnswers bool) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest, actor ActivityActor) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest, actor ActivityActor) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(repo repository.AssignmentRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, req dto.AssignmentListRequest, includeAnswers bool) (dto.AssignmentListResponse, error) {
	assignments, total, err := s.repo.List(ctx, repository.AssignmentFilter{
		CourseID: req.CourseID,
		Search:   req.Search,
		Sort:     req.Sort,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return dto.AssignmentListResponse{}, err
	}

	return dto.AssignmentListResponse{
		Items:      dto.NewAssignmentResponseSlice(assignments, includeAnswers),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *assignmentService) Get(ctx context.Context, id uint, includeAnswers bool) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment, includeAnswers), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest, actor ActivityActor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, newValidationError(err)
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, newValidationError(fmt.Errorf("invalid due date: %w", err))
	}

	if !dueDate.After(s.now()) {
		return dto.AssignmentResponse{}, newValidationError(fmt.Errorf("due date must be in the future"))
	}

	totalMarks := payload.TotalMarks
	if totalMarks <= 0 {
		totalMarks = defaultAssignmentTotalMarks
	}

	assignment := models.Assignment{
		CourseID:     payload.CourseID,
		InstructorID: actor.ID,
		Title:        strings.TrimSpace(payload.Title),
		Description:  s.sanitizer.Sanitize(payload.Description),
		Department:   strings.TrimSpace(payload.Department),
		DueDate:      dueDate,
		TotalMarks:   totalMarks,
		Questions:    dto.ToQuestions(payload.Questions),
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.audit(ctx, actor, ActionAssignmentCreated, assignment.ID, map[string]interface{}{
		"course_id": assignment.CourseID,
		"questions": len(assignment.Questions),
	})
	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment, true), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest, actor ActivityActor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, newValidationError(err)
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = strings.TrimSpace(*payload.Title)
	}

	if payload.Description != nil {
		assignment.Description = s.sanitizer.Sanitize(*payload.Description)
	}

	if payload.Department != nil {
		assignment.Department = strings.TrimSpace(*payload.Department)
	}

	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, newValidationError(fmt.Errorf("invalid due date: %w", err))
		}
		assignment.DueDate = dueDate
	}

	if payload.TotalMarks != nil {
		assignment.TotalMarks = *payload.TotalMarks
	}

	if payload.Questions != nil {
		assignment.Questions = dto.ToQuestions(*payload.Questions)
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return dto.AssignmentResponse{}, ErrConcurrentUpdate
		}
		if isNotFound(err) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	s.audit(ctx, actor, ActionAssignmentUpdated, assignment.ID, map[string]interface{}{
		"questions_replaced": payload.Questions != nil,
	})
	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment, true), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.audit(ctx, actor, ActionAssignmentDeleted, id, nil)
	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

func (s *assignmentService) audit(ctx context.Context, actor ActivityActor, action string, id uint, metadata map[string]interface{}) {
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "assignment",
		EntityID:   &id,
		Metadata:   metadata,
	})
}

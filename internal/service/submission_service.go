package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/events"
	"github.com/noah-isme/gema-lms-api/internal/grading"
	"github.com/noah-isme/gema-lms-api/internal/lock"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/observability"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

// SubmissionService records first submissions and grades them automatically.
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID, studentID uint, payload dto.SubmitRequest) (dto.SubmitResponse, error)
}

type submissionService struct {
	assignments  repository.AssignmentRepository
	submissions  repository.SubmissionRepository
	results      repository.GradedResultRepository
	certificates CertificationService
	locker       lock.Locker
	activity     ActivityRecorder
	publisher    events.Publisher
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, results repository.GradedResultRepository, certificates CertificationService, locker lock.Locker, activity ActivityRecorder, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &submissionService{
		assignments:  assignments,
		submissions:  submissions,
		results:      results,
		certificates: certificates,
		locker:       locker,
		activity:     activity,
		publisher:    publisher,
		validator:    validate,
		logger:       logger.With().Str("component", "submission_service").Logger(),
		tracer:       otel.Tracer(tracerPrefix + "submission"),
		now:          time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, assignmentID, studentID uint, payload dto.SubmitRequest) (dto.SubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.Int64("submission.assignment_id", int64(assignmentID)),
		attribute.Int64("submission.student_id", int64(studentID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		failSpan(span, err, "validation_failed")
		observability.SubmissionsTotal().WithLabelValues("invalid").Inc()
		return dto.SubmitResponse{}, newValidationError(err)
	}
	answers := payload.GradingAnswers()

	release, err := acquireLock(ctx, s.locker, lock.SubmissionKey(assignmentID, studentID))
	if err != nil {
		failSpan(span, err, "lock_failed")
		observability.SubmissionsTotal().WithLabelValues("failed").Inc()
		return dto.SubmitResponse{}, err
	}
	defer release()

	var (
		assignment models.Assignment
		submission models.Submission
		result     models.GradedResult
	)

	for attempt := 1; ; attempt++ {
		assignment, err = s.assignments.GetByID(ctx, assignmentID)
		if err != nil {
			if isNotFound(err) {
				return dto.SubmitResponse{}, ErrAssignmentNotFound
			}
			failSpan(span, err, "assignment_lookup_failed")
			return dto.SubmitResponse{}, err
		}

		if existing, _, ok := assignment.FindSubmission(studentID); ok {
			observability.SubmissionsTotal().WithLabelValues("duplicate").Inc()
			span.SetAttributes(attribute.Bool("submission.duplicate", true))
			return dto.SubmitResponse{}, &DuplicateSubmissionError{AssignmentID: assignmentID, Submission: existing}
		}

		scored, err := grading.Score(assignment.Questions, answers, assignment.TotalMarks, grading.PolicyAutoSubmit)
		if err != nil {
			failSpan(span, err, "invalid_answers")
			observability.SubmissionsTotal().WithLabelValues("invalid").Inc()
			return dto.SubmitResponse{}, newValidationError(err)
		}

		submission, result = s.build(assignment, studentID, scored)

		err = s.submissions.Record(ctx, assignment, submission, &result)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) {
			if duplicate, ok := s.duplicateFromResult(ctx, assignmentID, studentID); ok {
				observability.SubmissionsTotal().WithLabelValues("duplicate").Inc()
				span.SetAttributes(attribute.Bool("submission.duplicate", true))
				return dto.SubmitResponse{}, duplicate
			}
		}
		if !errors.Is(err, repository.ErrConflict) {
			failSpan(span, err, "record_failed")
			observability.SubmissionsTotal().WithLabelValues("failed").Inc()
			return dto.SubmitResponse{}, err
		}
		if attempt >= maxWriteAttempts {
			failSpan(span, err, "record_conflict")
			observability.SubmissionsTotal().WithLabelValues("failed").Inc()
			return dto.SubmitResponse{}, fmt.Errorf("%w: %v", ErrConcurrentUpdate, err)
		}
		s.logger.Debug().Uint("assignment_id", assignmentID).Int("attempt", attempt).Msg("submission write lost version race, retrying")
	}

	response := dto.SubmitResponse{
		Submission:     dto.NewSubmissionResponse(assignment.ID, submission),
		GradedResultID: result.ID,
	}

	if s.certificates != nil {
		certificate, err := s.certificates.MaybeIssue(ctx, result, assignment.InstructorID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("result_id", result.ID).Msg("certificate issuance failed")
			response.Warnings = append(response.Warnings, certificateWarning(err))
		}
		response.Certificate = dto.NewCertificateResponsePtr(certificate)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    studentID,
		ActorRole:  "student",
		Action:     ActionSubmissionCreated,
		EntityType: "graded_result",
		EntityID:   &result.ID,
		Metadata: map[string]interface{}{
			"assignment_id": assignment.ID,
			"percentage":    result.Percentage,
			"scaled_score":  result.ScaledScore,
			"late":          submission.Late,
		},
	})

	resultID := result.ID
	_ = s.publisher.Publish(ctx, events.Event{
		Type:         events.TypeSubmissionCreated,
		AssignmentID: assignment.ID,
		StudentID:    studentID,
		CourseID:     assignment.CourseID,
		ResultID:     &resultID,
		Percentage:   result.Percentage,
		ScaledScore:  result.ScaledScore,
	})

	observability.SubmissionsTotal().WithLabelValues("accepted").Inc()
	observability.ScorePercentage().WithLabelValues("submit").Observe(float64(result.Percentage))
	span.SetAttributes(
		attribute.Int("submission.percentage", result.Percentage),
		attribute.Bool("submission.late", submission.Late),
	)

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Uint("student_id", studentID).
		Uint("result_id", result.ID).
		Int("percentage", result.Percentage).
		Msg("submission recorded")

	return response, nil
}

// duplicateFromResult rebuilds the submission on file from the durable result when the
// assignment row no longer embeds it, e.g. after a regrade of a result-only record.
func (s *submissionService) duplicateFromResult(ctx context.Context, assignmentID, studentID uint) (*DuplicateSubmissionError, bool) {
	if s.results == nil {
		return nil, false
	}
	existing, err := s.results.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Uint("student_id", studentID).Msg("failed to load conflicting graded result")
		}
		return nil, false
	}

	s.logger.Warn().
		Uint("assignment_id", assignmentID).
		Uint("student_id", studentID).
		Uint("result_id", existing.ID).
		Msg("graded result exists without embedded submission")

	return &DuplicateSubmissionError{
		AssignmentID: assignmentID,
		Submission: models.Submission{
			StudentID:   studentID,
			Answers:     existing.Answers,
			SubmittedAt: existing.CreatedAt,
			Evaluation:  existing.Evaluation(),
		},
	}, true
}

// build derives the embedded submission and the durable result from the same score.
func (s *submissionService) build(assignment models.Assignment, studentID uint, scored grading.Result) (models.Submission, models.GradedResult) {
	now := s.now()
	evaluation := scored.Evaluation(models.EvaluationStatusEvaluated, "")

	submission := models.Submission{
		StudentID:   studentID,
		Answers:     scored.Answers,
		SubmittedAt: now,
		Late:        assignment.IsPastDue(now),
		Evaluation:  evaluation,
	}

	result := models.GradedResult{
		AssignmentID: assignment.ID,
		StudentID:    studentID,
		CourseID:     assignment.CourseID,
		Answers:      scored.Answers,
		TotalMarks:   evaluation.TotalMarks,
		EarnedMarks:  evaluation.EarnedMarks,
		Percentage:   evaluation.Percentage,
		ScaledScore:  evaluation.ScaledScore,
		Status:       evaluation.Status,
		GradedAt:     &now,
	}

	return submission, result
}

func certificateWarning(err error) string {
	if errors.Is(err, ErrCertificateNumberExhausted) {
		return "certificate could not be issued: no free certificate number"
	}
	return "certificate could not be issued"
}

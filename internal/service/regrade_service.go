package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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

const policyManualMarks = "manual_marks"

// ErrMarksExceedQuestion indicates a regrade awarded more than the question is worth.
var ErrMarksExceedQuestion = errors.New("marks exceed question maximum")

// RegradeService lets instructors override or re-run the grading of a result.
type RegradeService interface {
	Regrade(ctx context.Context, resultID uint, payload dto.RegradeRequest, actor ActivityActor) (dto.GradedResultResponse, error)
	Evaluate(ctx context.Context, assignmentID uint, payload dto.EvaluateRequest, actor ActivityActor) (dto.GradedResultResponse, error)
}

type regradeService struct {
	assignments  repository.AssignmentRepository
	results      repository.GradedResultRepository
	submissions  repository.SubmissionRepository
	certificates CertificationService
	locker       lock.Locker
	activity     ActivityRecorder
	publisher    events.Publisher
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewRegradeService constructs the regrade coordinator.
func NewRegradeService(assignments repository.AssignmentRepository, results repository.GradedResultRepository, submissions repository.SubmissionRepository, certificates CertificationService, locker lock.Locker, activity ActivityRecorder, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger) RegradeService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &regradeService{
		assignments:  assignments,
		results:      results,
		submissions:  submissions,
		certificates: certificates,
		locker:       locker,
		activity:     activity,
		publisher:    publisher,
		validator:    validate,
		sanitizer:    feedbackSanitizer(),
		logger:       logger.With().Str("component", "regrade_service").Logger(),
		tracer:       otel.Tracer(tracerPrefix + "regrade"),
		now:          time.Now,
	}
}

// rescoreFunc recomputes a result against the current assignment.
type rescoreFunc func(assignment models.Assignment, result *models.GradedResult) error

func (s *regradeService) Regrade(ctx context.Context, resultID uint, payload dto.RegradeRequest, actor ActivityActor) (dto.GradedResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.regrade", trace.WithAttributes(
		attribute.Int64("grading.result_id", int64(resultID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		failSpan(span, err, "validation_failed")
		return dto.GradedResultResponse{}, newValidationError(err)
	}

	current, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		if isNotFound(err) {
			return dto.GradedResultResponse{}, ErrGradedResultNotFound
		}
		failSpan(span, err, "result_lookup_failed")
		return dto.GradedResultResponse{}, err
	}

	feedback := cleanText(s.sanitizer, payload.Feedback)
	return s.apply(ctx, span, current.AssignmentID, current.StudentID, actor, policyManualMarks, func(assignment models.Assignment, result *models.GradedResult) error {
		answers, err := s.applyMarks(assignment.Questions, result.Answers, payload.Answers)
		if err != nil {
			return err
		}

		earned, total := grading.Totals(answers)
		percentage := grading.Percentage(earned, total)
		result.Answers = answers
		result.EarnedMarks = earned
		result.TotalMarks = total
		result.Percentage = percentage
		result.ScaledScore = grading.Scale(percentage, assignment.TotalMarks)
		result.Feedback = feedback
		return nil
	})
}

func (s *regradeService) Evaluate(ctx context.Context, assignmentID uint, payload dto.EvaluateRequest, actor ActivityActor) (dto.GradedResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.evaluate", trace.WithAttributes(
		attribute.Int64("grading.assignment_id", int64(assignmentID)),
		attribute.Int64("grading.student_id", int64(payload.StudentID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		failSpan(span, err, "validation_failed")
		return dto.GradedResultResponse{}, newValidationError(err)
	}

	if len(payload.Answers) > 0 {
		current, err := s.results.GetByAssignmentAndStudent(ctx, assignmentID, payload.StudentID)
		if err != nil {
			if isNotFound(err) {
				return dto.GradedResultResponse{}, ErrGradedResultNotFound
			}
			return dto.GradedResultResponse{}, err
		}
		return s.Regrade(ctx, current.ID, dto.RegradeRequest{Answers: payload.Answers, Feedback: payload.Feedback}, actor)
	}

	feedback := cleanText(s.sanitizer, payload.Feedback)
	policy := grading.PolicyInstructorEvaluate
	return s.apply(ctx, span, assignmentID, payload.StudentID, actor, policy.String(), func(assignment models.Assignment, result *models.GradedResult) error {
		scored := grading.Rescore(assignment.Questions, result.Answers, assignment.TotalMarks, policy)
		result.Answers = scored.Answers
		result.EarnedMarks = scored.EarnedMarks
		result.TotalMarks = scored.TotalMarks
		result.Percentage = scored.Percentage
		result.ScaledScore = scored.ScaledScore
		result.Feedback = feedback
		return nil
	})
}

// apply runs rescore under the per-(assignment, student) lock, writes the result and the
// embedded submission together and then re-enters the certification gate.
func (s *regradeService) apply(ctx context.Context, span trace.Span, assignmentID, studentID uint, actor ActivityActor, policy string, rescore rescoreFunc) (dto.GradedResultResponse, error) {
	release, err := acquireLock(ctx, s.locker, lock.SubmissionKey(assignmentID, studentID))
	if err != nil {
		failSpan(span, err, "lock_failed")
		observability.RegradesTotal().WithLabelValues(policy, "failed").Inc()
		return dto.GradedResultResponse{}, err
	}
	defer release()

	var (
		assignment models.Assignment
		result     models.GradedResult
	)

	for attempt := 1; ; attempt++ {
		result, err = s.results.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
		if err != nil {
			if isNotFound(err) {
				return dto.GradedResultResponse{}, ErrGradedResultNotFound
			}
			failSpan(span, err, "result_lookup_failed")
			return dto.GradedResultResponse{}, err
		}

		assignment, err = s.assignments.GetByID(ctx, assignmentID)
		if err != nil {
			if isNotFound(err) {
				return dto.GradedResultResponse{}, ErrAssignmentNotFound
			}
			failSpan(span, err, "assignment_lookup_failed")
			return dto.GradedResultResponse{}, err
		}

		if err := rescore(assignment, &result); err != nil {
			failSpan(span, err, "invalid_marks")
			observability.RegradesTotal().WithLabelValues(policy, "invalid").Inc()
			return dto.GradedResultResponse{}, newValidationError(err)
		}

		now := s.now()
		gradedBy := actor.ID
		result.Status = models.EvaluationStatusGraded
		result.GradedBy = &gradedBy
		result.GradedAt = &now

		submission, _, ok := assignment.FindSubmission(studentID)
		if !ok {
			s.logger.Warn().Uint("assignment_id", assignmentID).Uint("student_id", studentID).Msg("graded result has no embedded submission; updating result only")
			submission = models.Submission{StudentID: studentID}
		}
		submission.Answers = result.Answers
		submission.Evaluation = result.Evaluation()

		err = s.submissions.UpdateEvaluation(ctx, assignment, submission, &result)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrConflict) {
			failSpan(span, err, "update_failed")
			observability.RegradesTotal().WithLabelValues(policy, "failed").Inc()
			return dto.GradedResultResponse{}, err
		}
		if attempt >= maxWriteAttempts {
			failSpan(span, err, "update_conflict")
			observability.RegradesTotal().WithLabelValues(policy, "failed").Inc()
			return dto.GradedResultResponse{}, fmt.Errorf("%w: %v", ErrConcurrentUpdate, err)
		}
	}

	response := dto.NewGradedResultResponse(result)

	if s.certificates != nil {
		certificate, err := s.certificates.MaybeIssue(ctx, result, assignment.InstructorID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("result_id", result.ID).Msg("certificate issuance failed after regrade")
			response.Warnings = append(response.Warnings, certificateWarning(err))
		}
		if certificate != nil {
			certID := certificate.ID
			response.CertificateIssued = true
			response.CertificateID = &certID
			response.Certificate = dto.NewCertificateResponsePtr(certificate)
		}
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionResultRegraded,
		EntityType: "graded_result",
		EntityID:   &result.ID,
		Metadata: map[string]interface{}{
			"assignment_id": assignmentID,
			"student_id":    studentID,
			"policy":        policy,
			"percentage":    result.Percentage,
			"scaled_score":  result.ScaledScore,
		},
	})

	resultID := result.ID
	_ = s.publisher.Publish(ctx, events.Event{
		Type:         events.TypeResultRegraded,
		AssignmentID: assignmentID,
		StudentID:    studentID,
		CourseID:     result.CourseID,
		ResultID:     &resultID,
		Percentage:   result.Percentage,
		ScaledScore:  result.ScaledScore,
	})

	observability.RegradesTotal().WithLabelValues(policy, "ok").Inc()
	observability.ScorePercentage().WithLabelValues("regrade").Observe(float64(result.Percentage))
	span.SetAttributes(attribute.Int("grading.percentage", result.Percentage), attribute.String("grading.policy", policy))

	s.logger.Info().
		Uint("result_id", result.ID).
		Uint("actor_id", actor.ID).
		Str("policy", policy).
		Int("percentage", result.Percentage).
		Msg("graded result updated")

	return response, nil
}

// applyMarks overlays instructor marks on the stored answers, aligned to the current question
// bank. Questions the request omits keep their previous marks.
func (s *regradeService) applyMarks(questions []models.Question, previous []models.GradedAnswer, marks []dto.RegradeAnswerRequest) ([]models.GradedAnswer, error) {
	answers := make([]models.GradedAnswer, len(questions))
	for idx, question := range questions {
		if idx < len(previous) {
			answers[idx] = previous[idx]
			answers[idx].QuestionID = idx
			answers[idx].MaxMarks = question.Marks
			if answers[idx].Marks > question.Marks {
				answers[idx].Marks = question.Marks
			}
			continue
		}
		answers[idx] = models.GradedAnswer{QuestionID: idx, MaxMarks: question.Marks, Feedback: grading.FeedbackUnanswered}
	}

	for _, entry := range marks {
		id := *entry.QuestionID
		if id < 0 || id >= len(questions) {
			return nil, fmt.Errorf("%w: question id %d out of range", grading.ErrInvalidAnswer, id)
		}

		awarded := *entry.Marks
		if awarded > questions[id].Marks {
			return nil, fmt.Errorf("%w: question %d awarded %.2f of %.2f", ErrMarksExceedQuestion, id, awarded, questions[id].Marks)
		}

		answers[id].Marks = awarded
		answers[id].IsCorrect = grading.IsCorrectByMarks(awarded, questions[id].Marks)
		if feedback := cleanText(s.sanitizer, entry.Feedback); feedback != "" {
			answers[id].Feedback = feedback
		}
	}

	return answers, nil
}

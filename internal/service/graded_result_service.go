package service

import (
	"context"
	"slices"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

// GradedResultService serves graded results and checks them against embedded submissions.
type GradedResultService interface {
	Get(ctx context.Context, id uint, viewer ActivityActor) (dto.GradedResultResponse, error)
	ListByStudent(ctx context.Context, studentID uint, courseID *uint) ([]dto.GradedResultResponse, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.GradedResultResponse, error)
	// Reconcile compares both stores for an assignment. The report is always returned; the
	// error is an *InconsistentStateError when they disagree. Nothing is repaired.
	Reconcile(ctx context.Context, assignmentID uint) (dto.ReconcileResponse, error)
}

type gradedResultService struct {
	results     repository.GradedResultRepository
	assignments repository.AssignmentRepository
	logger      zerolog.Logger
}

// NewGradedResultService constructs the service.
func NewGradedResultService(results repository.GradedResultRepository, assignments repository.AssignmentRepository, logger zerolog.Logger) GradedResultService {
	return &gradedResultService{
		results:     results,
		assignments: assignments,
		logger:      logger.With().Str("component", "graded_result_service").Logger(),
	}
}

func (s *gradedResultService) Get(ctx context.Context, id uint, viewer ActivityActor) (dto.GradedResultResponse, error) {
	result, err := s.results.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return dto.GradedResultResponse{}, ErrGradedResultNotFound
		}
		return dto.GradedResultResponse{}, err
	}

	if !viewer.IsStaff() && result.StudentID != viewer.ID {
		return dto.GradedResultResponse{}, ErrForbidden
	}

	return dto.NewGradedResultResponse(result), nil
}

func (s *gradedResultService) ListByStudent(ctx context.Context, studentID uint, courseID *uint) ([]dto.GradedResultResponse, error) {
	results, err := s.results.ListByStudent(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewGradedResultResponseSlice(results), nil
}

func (s *gradedResultService) ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.GradedResultResponse, error) {
	if _, err := s.assignments.GetByID(ctx, assignmentID); err != nil {
		if isNotFound(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	results, err := s.results.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return dto.NewGradedResultResponseSlice(results), nil
}

func (s *gradedResultService) Reconcile(ctx context.Context, assignmentID uint) (dto.ReconcileResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if isNotFound(err) {
			return dto.ReconcileResponse{}, ErrAssignmentNotFound
		}
		return dto.ReconcileResponse{}, err
	}

	results, err := s.results.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return dto.ReconcileResponse{}, err
	}

	byStudent := make(map[uint]models.GradedResult, len(results))
	for _, result := range results {
		byStudent[result.StudentID] = result
	}

	report := dto.ReconcileResponse{
		AssignmentID:   assignmentID,
		Submissions:    len(assignment.Submissions),
		Results:        len(results),
		MissingResults: []uint{},
		OrphanResults:  []uint{},
		Mismatched:     []uint{},
	}

	seen := make(map[uint]struct{}, len(assignment.Submissions))
	for _, submission := range assignment.Submissions {
		seen[submission.StudentID] = struct{}{}

		result, ok := byStudent[submission.StudentID]
		if !ok {
			report.MissingResults = append(report.MissingResults, submission.StudentID)
			continue
		}
		if submission.Evaluation != result.Evaluation() {
			report.Mismatched = append(report.Mismatched, submission.StudentID)
		}
	}

	for studentID := range byStudent {
		if _, ok := seen[studentID]; !ok {
			report.OrphanResults = append(report.OrphanResults, studentID)
		}
	}

	slices.Sort(report.MissingResults)
	slices.Sort(report.OrphanResults)
	slices.Sort(report.Mismatched)

	report.Consistent = len(report.MissingResults) == 0 && len(report.OrphanResults) == 0 && len(report.Mismatched) == 0
	if report.Consistent {
		return report, nil
	}

	s.logger.Warn().
		Uint("assignment_id", assignmentID).
		Int("missing_results", len(report.MissingResults)).
		Int("orphan_results", len(report.OrphanResults)).
		Int("mismatched", len(report.Mismatched)).
		Msg("assignment submissions and graded results disagree")

	return report, &InconsistentStateError{
		AssignmentID:   assignmentID,
		MissingResults: report.MissingResults,
		OrphanResults:  report.OrphanResults,
		Mismatched:     report.Mismatched,
	}
}

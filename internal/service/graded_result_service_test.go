package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

func TestGradedResultServiceVisibility(t *testing.T) {
	p := newPipeline(t, 60)
	assignment := p.createAssignment(t, 1, 100, shortQuestion("4", 10))

	submitted, err := p.submissions.Submit(context.Background(), assignment.ID, 7, submitRequest("4"))
	require.NoError(t, err)

	own, err := p.reads.Get(context.Background(), submitted.GradedResultID, ActivityActor{ID: 7, Role: "student"})
	require.NoError(t, err)
	require.Equal(t, uint(7), own.StudentID)

	_, err = p.reads.Get(context.Background(), submitted.GradedResultID, ActivityActor{ID: 8, Role: "student"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = p.reads.Get(context.Background(), submitted.GradedResultID, staff)
	require.NoError(t, err)

	_, err = p.reads.Get(context.Background(), 404, staff)
	require.ErrorIs(t, err, ErrGradedResultNotFound)

	courseID := uint(1)
	mine, err := p.reads.ListByStudent(context.Background(), 7, &courseID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	byAssignment, err := p.reads.ListByAssignment(context.Background(), assignment.ID)
	require.NoError(t, err)
	require.Len(t, byAssignment, 1)

	_, err = p.reads.ListByAssignment(context.Background(), 404)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestReconcileReportsDisagreements(t *testing.T) {
	p := newPipeline(t, 60)
	assignment := p.createAssignment(t, 1, 100, shortQuestion("4", 10))
	ctx := context.Background()

	for _, studentID := range []uint{1, 2} {
		_, err := p.submissions.Submit(ctx, assignment.ID, studentID, submitRequest("4"))
		require.NoError(t, err)
	}

	// Orphan: a result without an embedded submission.
	require.NoError(t, p.results.Create(ctx, &models.GradedResult{AssignmentID: assignment.ID, StudentID: 3, CourseID: 1, Status: models.EvaluationStatusEvaluated}))

	// Missing: drop student 1's result.
	require.NoError(t, p.db.Where("assignment_id = ? AND student_id = ?", assignment.ID, 1).Delete(&models.GradedResult{}).Error)

	// Mismatch: change student 2's result without touching the submission.
	require.NoError(t, p.db.Model(&models.GradedResult{}).Where("assignment_id = ? AND student_id = ?", assignment.ID, 2).Update("percentage", 12).Error)

	report, err := p.reads.Reconcile(ctx, assignment.ID)
	require.Error(t, err)

	var inconsistent *InconsistentStateError
	require.True(t, errors.As(err, &inconsistent))
	require.Equal(t, []uint{1}, inconsistent.MissingResults)
	require.Equal(t, []uint{3}, inconsistent.OrphanResults)
	require.Equal(t, []uint{2}, inconsistent.Mismatched)

	require.False(t, report.Consistent)
	require.Equal(t, 2, report.Submissions)
	require.Equal(t, 2, report.Results)

	_, err = p.reads.Reconcile(ctx, 404)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

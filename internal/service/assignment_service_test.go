package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
)

func newAssignmentRequest() dto.AssignmentCreateRequest {
	return dto.AssignmentCreateRequest{
		CourseID:    4,
		Title:       "Cell biology",
		Description: "<p>Read chapter 2</p><script>alert(1)</script>",
		DueDate:     time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		Questions: []dto.QuestionRequest{
			{Text: "Powerhouse of the cell?", Type: "short-answer", CorrectAnswer: "mitochondria", Marks: 5},
			{Text: "Describe osmosis", Type: "essay", CorrectAnswer: "movement of water across a membrane", Marks: 15},
		},
	}
}

func TestAssignmentServiceCreateUpdateDelete(t *testing.T) {
	p := newPipeline(t, 60)
	activity := NewActivityService(p.activityLogs, testLogger())
	svc := NewAssignmentService(p.assignments, activity, validator.New(validator.WithRequiredStructEnabled()), testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, newAssignmentRequest(), staff)
	require.NoError(t, err)
	require.Equal(t, 100, created.TotalMarks, "total marks default to 100")
	require.Equal(t, staff.ID, created.InstructorID)
	require.NotContains(t, created.Description, "<script>")
	require.Len(t, created.Questions, 2)
	require.Equal(t, string(models.AnswerFormatLong), created.Questions[1].AnswerFormat)

	hidden, err := svc.Get(ctx, created.ID, false)
	require.NoError(t, err)
	require.Empty(t, hidden.Questions[0].CorrectAnswer)

	_, err = p.submissions.Submit(ctx, created.ID, 11, submitRequest("Mitochondria"))
	require.NoError(t, err)

	title := "Cell biology II"
	total := 40
	updated, err := svc.Update(ctx, created.ID, dto.AssignmentUpdateRequest{Title: &title, TotalMarks: &total}, staff)
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, 1, updated.SubmissionCount, "update keeps embedded submissions")

	courseID := uint(4)
	list, err := svc.List(ctx, dto.AssignmentListRequest{CourseID: &courseID, PageSize: 10}, true)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, int64(1), list.Pagination.TotalItems)

	require.NoError(t, svc.Delete(ctx, created.ID, staff))
	results, err := p.results.ListByAssignment(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, results)

	require.ErrorIs(t, svc.Delete(ctx, created.ID, staff), ErrAssignmentNotFound)
	_, err = svc.Get(ctx, created.ID, true)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAssignmentServiceValidation(t *testing.T) {
	p := newPipeline(t, 60)
	svc := NewAssignmentService(p.assignments, nil, validator.New(validator.WithRequiredStructEnabled()), testLogger())

	var validation *ValidationError

	req := newAssignmentRequest()
	req.Questions = nil
	_, err := svc.Create(context.Background(), req, staff)
	require.ErrorAs(t, err, &validation)

	req = newAssignmentRequest()
	req.DueDate = time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	_, err = svc.Create(context.Background(), req, staff)
	require.ErrorAs(t, err, &validation)

	req = newAssignmentRequest()
	req.Questions[0].Type = "matching"
	_, err = svc.Create(context.Background(), req, staff)
	require.ErrorAs(t, err, &validation)
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

func seedAssignment(t *testing.T, db *gorm.DB, courseID uint, title string) models.Assignment {
	t.Helper()

	assignment := models.Assignment{
		CourseID:     courseID,
		InstructorID: 1,
		Title:        title,
		DueDate:      time.Now().Add(24 * time.Hour),
		TotalMarks:   100,
		Questions: []models.Question{
			{Text: "2+2", Type: models.QuestionTypeShortAnswer, CorrectAnswer: "4", Marks: 10},
		},
	}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func TestAssignmentRepositoryListByCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	seedAssignment(t, db, 1, "Algebra")
	seedAssignment(t, db, 1, "Geometry")
	seedAssignment(t, db, 2, "Biology")

	items, err := repo.ListByCourse(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Algebra", items[0].Title)

	courseID := uint(2)
	filtered, total, err := repo.List(context.Background(), AssignmentFilter{CourseID: &courseID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Biology", filtered[0].Title)
	require.Len(t, filtered[0].Questions, 1)
}

func TestAssignmentRepositoryUpdateVersionGuard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	assignment := seedAssignment(t, db, 1, "Algebra")

	stale := assignment
	assignment.Title = "Algebra II"
	require.NoError(t, repo.Update(context.Background(), &assignment))
	require.Equal(t, int64(1), assignment.Version)

	stale.Title = "Lost update"
	require.ErrorIs(t, repo.Update(context.Background(), &stale), ErrConflict)

	stored, err := repo.GetByID(context.Background(), assignment.ID)
	require.NoError(t, err)
	require.Equal(t, "Algebra II", stored.Title)

	missing := models.Assignment{ID: 999}
	require.ErrorIs(t, repo.Update(context.Background(), &missing), gorm.ErrRecordNotFound)
}

func TestAssignmentRepositoryDeleteCascadesResults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	assignment := seedAssignment(t, db, 1, "Algebra")
	other := seedAssignment(t, db, 1, "Geometry")

	require.NoError(t, db.Create(&models.GradedResult{AssignmentID: assignment.ID, StudentID: 5, CourseID: 1, Status: models.EvaluationStatusEvaluated}).Error)
	require.NoError(t, db.Create(&models.GradedResult{AssignmentID: other.ID, StudentID: 5, CourseID: 1, Status: models.EvaluationStatusEvaluated}).Error)

	require.NoError(t, repo.Delete(context.Background(), assignment.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.GradedResult{}).Count(&remaining).Error)
	require.Equal(t, int64(1), remaining)

	require.ErrorIs(t, repo.Delete(context.Background(), assignment.ID), gorm.ErrRecordNotFound)
}

package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// SubmissionRepository writes the embedded submission and its graded result together.
//
// Both methods run in one transaction and guard the assignment row with its version, so a
// concurrent writer makes the call fail with ErrConflict instead of overwriting.
type SubmissionRepository interface {
	Record(ctx context.Context, assignment models.Assignment, submission models.Submission, result *models.GradedResult) error
	UpdateEvaluation(ctx context.Context, assignment models.Assignment, submission models.Submission, result *models.GradedResult) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Record(ctx context.Context, assignment models.Assignment, submission models.Submission, result *models.GradedResult) error {
	if _, _, exists := assignment.FindSubmission(submission.StudentID); exists {
		return ErrConflict
	}

	submissions := make([]models.Submission, 0, len(assignment.Submissions)+1)
	submissions = append(submissions, assignment.Submissions...)
	submissions = append(submissions, submission)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := writeSubmissions(tx, assignment, submissions); err != nil {
			return err
		}

		return translateWriteError(tx.Create(result).Error)
	})
}

func (r *submissionRepository) UpdateEvaluation(ctx context.Context, assignment models.Assignment, submission models.Submission, result *models.GradedResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, idx, exists := assignment.FindSubmission(submission.StudentID); exists {
			submissions := make([]models.Submission, len(assignment.Submissions))
			copy(submissions, assignment.Submissions)
			submissions[idx] = submission

			if err := writeSubmissions(tx, assignment, submissions); err != nil {
				return err
			}
		}

		return translateWriteError(tx.Save(result).Error)
	})
}

func writeSubmissions(tx *gorm.DB, assignment models.Assignment, submissions []models.Submission) error {
	update := tx.Model(&models.Assignment{}).
		Where("id = ? AND version = ?", assignment.ID, assignment.Version).
		Updates(map[string]any{
			"submissions": datatypes.JSONSlice[models.Submission](submissions),
			"version":     assignment.Version + 1,
		})
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

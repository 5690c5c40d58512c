package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// GradedResultRepository persists durable grading records.
type GradedResultRepository interface {
	Create(ctx context.Context, result *models.GradedResult) error
	GetByID(ctx context.Context, id uint) (models.GradedResult, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.GradedResult, error)
	ListByStudent(ctx context.Context, studentID uint, courseID *uint) ([]models.GradedResult, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.GradedResult, error)
	Update(ctx context.Context, result *models.GradedResult) error
	MarkCertificate(ctx context.Context, id, certificateID uint) error
}

type gradedResultRepository struct {
	db *gorm.DB
}

// NewGradedResultRepository constructs the graded result repository.
func NewGradedResultRepository(db *gorm.DB) GradedResultRepository {
	return &gradedResultRepository{db: db}
}

func (r *gradedResultRepository) Create(ctx context.Context, result *models.GradedResult) error {
	return translateWriteError(r.db.WithContext(ctx).Create(result).Error)
}

func (r *gradedResultRepository) GetByID(ctx context.Context, id uint) (models.GradedResult, error) {
	var result models.GradedResult
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return models.GradedResult{}, err
	}
	return result, nil
}

func (r *gradedResultRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.GradedResult, error) {
	var result models.GradedResult
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&result).Error; err != nil {
		return models.GradedResult{}, err
	}
	return result, nil
}

func (r *gradedResultRepository) ListByStudent(ctx context.Context, studentID uint, courseID *uint) ([]models.GradedResult, error) {
	query := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if courseID != nil {
		query = query.Where("course_id = ?", *courseID)
	}

	var results []models.GradedResult
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gradedResultRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.GradedResult, error) {
	var results []models.GradedResult
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("student_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gradedResultRepository) Update(ctx context.Context, result *models.GradedResult) error {
	return translateWriteError(r.db.WithContext(ctx).Save(result).Error)
}

func (r *gradedResultRepository) MarkCertificate(ctx context.Context, id, certificateID uint) error {
	update := r.db.WithContext(ctx).
		Model(&models.GradedResult{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"certificate_issued": true,
			"certificate_id":     certificateID,
		})
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

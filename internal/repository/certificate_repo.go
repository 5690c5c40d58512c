package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// CertificateRepository persists issued certificates.
type CertificateRepository interface {
	Create(ctx context.Context, certificate *models.Certificate) error
	GetByID(ctx context.Context, id uint) (models.Certificate, error)
	FindForAssignment(ctx context.Context, studentID, courseID, assignmentID uint) (models.Certificate, error)
	FindCourseCompletion(ctx context.Context, studentID, courseID uint) (models.Certificate, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Certificate, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
}

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository constructs the certificate repository.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) Create(ctx context.Context, certificate *models.Certificate) error {
	if certificate.AssignmentID != nil {
		certificate.AssignmentKey = *certificate.AssignmentID
	}
	return translateWriteError(r.db.WithContext(ctx).Create(certificate).Error)
}

func (r *certificateRepository) GetByID(ctx context.Context, id uint) (models.Certificate, error) {
	var certificate models.Certificate
	if err := r.db.WithContext(ctx).First(&certificate, id).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) FindForAssignment(ctx context.Context, studentID, courseID, assignmentID uint) (models.Certificate, error) {
	return r.findScoped(ctx, studentID, courseID, assignmentID)
}

func (r *certificateRepository) FindCourseCompletion(ctx context.Context, studentID, courseID uint) (models.Certificate, error) {
	return r.findScoped(ctx, studentID, courseID, 0)
}

func (r *certificateRepository) findScoped(ctx context.Context, studentID, courseID, assignmentKey uint) (models.Certificate, error) {
	var certificate models.Certificate
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND assignment_key = ?", studentID, courseID, assignmentKey).
		First(&certificate).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("certificate_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *certificateRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Certificate, error) {
	var certificates []models.Certificate
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("completion_date DESC").
		Find(&certificates).Error; err != nil {
		return nil, err
	}
	return certificates, nil
}

func (r *certificateRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	update := r.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("id = ?", id).
		Update("status", status)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

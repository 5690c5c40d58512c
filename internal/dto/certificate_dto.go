package dto

import (
	"time"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// CertificateResponse serialises a certificate.
type CertificateResponse struct {
	ID                uint      `json:"id"`
	StudentID         uint      `json:"studentId"`
	CourseID          uint      `json:"courseId"`
	AssignmentID      *uint     `json:"assignmentId,omitempty"`
	InstructorID      uint      `json:"instructorId"`
	Grade             string    `json:"grade"`
	CompletionDate    time.Time `json:"completionDate"`
	Status            string    `json:"status"`
	CertificateNumber string    `json:"certificateNumber"`
	CourseCompletion  bool      `json:"courseCompletion"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewCertificateResponse converts a model into a DTO.
func NewCertificateResponse(model models.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:                model.ID,
		StudentID:         model.StudentID,
		CourseID:          model.CourseID,
		AssignmentID:      model.AssignmentID,
		InstructorID:      model.InstructorID,
		Grade:             model.Grade,
		CompletionDate:    model.CompletionDate,
		Status:            model.Status,
		CertificateNumber: model.CertificateNumber,
		CourseCompletion:  model.CourseCompletion,
		CreatedAt:         model.CreatedAt,
	}
}

// NewCertificateResponsePtr converts an optional certificate.
func NewCertificateResponsePtr(model *models.Certificate) *CertificateResponse {
	if model == nil {
		return nil
	}
	response := NewCertificateResponse(*model)
	return &response
}

// NewCertificateResponseSlice converts models into DTOs.
func NewCertificateResponseSlice(certificates []models.Certificate) []CertificateResponse {
	responses := make([]CertificateResponse, 0, len(certificates))
	for _, certificate := range certificates {
		responses = append(responses, NewCertificateResponse(certificate))
	}
	return responses
}

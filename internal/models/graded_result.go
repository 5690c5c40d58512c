package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradedResult is the durable, denormalised record of one evaluated submission.
type GradedResult struct {
	ID                uint                              `gorm:"primaryKey" json:"id"`
	AssignmentID      uint                              `gorm:"not null;uniqueIndex:idx_graded_result_assignment_student" json:"assignmentId"`
	StudentID         uint                              `gorm:"not null;uniqueIndex:idx_graded_result_assignment_student;index" json:"studentId"`
	CourseID          uint                              `gorm:"not null;index" json:"courseId"`
	Answers           datatypes.JSONSlice[GradedAnswer] `gorm:"type:json" json:"answers"`
	TotalMarks        float64                           `gorm:"not null" json:"totalMarks"`
	EarnedMarks       float64                           `gorm:"not null" json:"earnedMarks"`
	Percentage        int                               `gorm:"not null" json:"percentage"`
	ScaledScore       int                               `gorm:"not null" json:"scaledScore"`
	Status            string                            `gorm:"size:32;not null" json:"status"`
	Feedback          string                            `gorm:"type:text" json:"feedback"`
	GradedBy          *uint                             `json:"gradedBy"`
	GradedAt          *time.Time                        `json:"gradedAt"`
	CertificateIssued bool                              `gorm:"not null;default:false" json:"certificateIssued"`
	CertificateID     *uint                             `json:"certificateId"`
	CreatedAt         time.Time                         `json:"createdAt"`
	UpdatedAt         time.Time                         `json:"updatedAt"`
}

// Evaluation returns the evaluation block mirrored into the embedded submission.
func (r GradedResult) Evaluation() Evaluation {
	return Evaluation{
		TotalMarks:  r.TotalMarks,
		EarnedMarks: r.EarnedMarks,
		Percentage:  r.Percentage,
		ScaledScore: r.ScaledScore,
		Status:      r.Status,
		Feedback:    r.Feedback,
	}
}

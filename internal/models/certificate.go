package models

import "time"

// Certificate statuses.
const (
	CertificateStatusPending = "pending"
	CertificateStatusIssued  = "issued"
	CertificateStatusRevoked = "revoked"
)

// Certificate is issued to a student for passing an assignment or completing a course.
//
// AssignmentKey mirrors AssignmentID with 0 for course completion so that the
// (student, course, assignment) unique index covers both kinds.
type Certificate struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	StudentID         uint      `gorm:"not null;uniqueIndex:idx_certificate_scope;index" json:"studentId"`
	CourseID          uint      `gorm:"not null;uniqueIndex:idx_certificate_scope" json:"courseId"`
	AssignmentKey     uint      `gorm:"not null;default:0;uniqueIndex:idx_certificate_scope" json:"-"`
	AssignmentID      *uint     `json:"assignmentId"`
	InstructorID      uint      `gorm:"not null" json:"instructorId"`
	Grade             string    `gorm:"size:32" json:"grade"`
	CompletionDate    time.Time `gorm:"not null" json:"completionDate"`
	Status            string    `gorm:"size:32;not null" json:"status"`
	CertificateNumber string    `gorm:"size:64;not null;uniqueIndex" json:"certificateNumber"`
	CourseCompletion  bool      `gorm:"not null;default:false" json:"courseCompletion"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IsActive reports whether the certificate still counts as issued.
func (c Certificate) IsActive() bool {
	return c.Status != CertificateStatusRevoked
}

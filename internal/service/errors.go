package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

var (
	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrGradedResultNotFound indicates the requested graded result does not exist.
	ErrGradedResultNotFound = errors.New("graded result not found")
	// ErrCertificateNotFound indicates the requested certificate does not exist.
	ErrCertificateNotFound = errors.New("certificate not found")
	// ErrDuplicateSubmission indicates the student already submitted this assignment.
	ErrDuplicateSubmission = errors.New("submission already exists")
	// ErrCertificateNumberExhausted indicates no unused certificate number was found.
	ErrCertificateNumberExhausted = errors.New("certificate number attempts exhausted")
	// ErrCourseNotCompleted indicates the student has not passed every assignment of the course.
	ErrCourseNotCompleted = errors.New("course not completed")
	// ErrCertificateRevoked indicates the certificate scope was revoked and will not be reissued.
	ErrCertificateRevoked = errors.New("certificate revoked")
	// ErrConcurrentUpdate indicates a write kept losing against concurrent writers.
	ErrConcurrentUpdate = errors.New("assignment modified concurrently")
	// ErrForbidden indicates the caller may not read the requested record.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError wraps input problems detected before any state is touched.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(err error) error {
	return &ValidationError{Err: err}
}

// DuplicateSubmissionError carries the submission already on file.
type DuplicateSubmissionError struct {
	AssignmentID uint
	Submission   models.Submission
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("student %d already submitted assignment %d", e.Submission.StudentID, e.AssignmentID)
}

// Is lets errors.Is match ErrDuplicateSubmission.
func (e *DuplicateSubmissionError) Is(target error) bool {
	return target == ErrDuplicateSubmission
}

// InconsistentStateError reports students whose embedded submission and graded result disagree.
type InconsistentStateError struct {
	AssignmentID   uint
	MissingResults []uint
	OrphanResults  []uint
	Mismatched     []uint
}

func (e *InconsistentStateError) Error() string {
	parts := make([]string, 0, 3)
	if len(e.MissingResults) > 0 {
		parts = append(parts, fmt.Sprintf("%d submissions without result", len(e.MissingResults)))
	}
	if len(e.OrphanResults) > 0 {
		parts = append(parts, fmt.Sprintf("%d results without submission", len(e.OrphanResults)))
	}
	if len(e.Mismatched) > 0 {
		parts = append(parts, fmt.Sprintf("%d evaluations out of sync", len(e.Mismatched)))
	}
	return fmt.Sprintf("assignment %d inconsistent: %s", e.AssignmentID, strings.Join(parts, ", "))
}

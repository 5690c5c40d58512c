// Package lock serialises work per key, either in-process or through redis.
package lock

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotAcquired is returned when a lock could not be obtained before the context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Release frees a previously acquired lock.
type Release func()

// Locker grants mutual exclusion for a key.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// SubmissionKey scopes a lock to one student's submission for an assignment.
func SubmissionKey(assignmentID, studentID uint) string {
	return fmt.Sprintf("lock:submission:%d:%d", assignmentID, studentID)
}

// CertificateKey scopes a lock to the certificate of a (student, course, assignment) triple.
// Course-completion certificates use assignment 0.
func CertificateKey(studentID, courseID, assignmentID uint) string {
	return fmt.Sprintf("lock:certificate:%d:%d:%d", studentID, courseID, assignmentID)
}

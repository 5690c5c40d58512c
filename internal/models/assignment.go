package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionType enumerates the kinds of questions an assignment may contain.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeShortAnswer    QuestionType = "short-answer"
	QuestionTypeEssay          QuestionType = "essay"
	QuestionTypeLongAnswer     QuestionType = "long-answer"
)

// AnswerFormat classifies how a free-form answer is compared with its reference.
type AnswerFormat string

const (
	AnswerFormatShort AnswerFormat = "short"
	AnswerFormatLong  AnswerFormat = "long"
)

// Question is one entry of an assignment question bank.
type Question struct {
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	CorrectAnswer string       `json:"correctAnswer"`
	Marks         float64      `json:"marks"`
	AnswerFormat  AnswerFormat `json:"answerFormat,omitempty"`
}

// Format returns the explicit answer format or the one implied by the question type.
func (q Question) Format() AnswerFormat {
	switch q.AnswerFormat {
	case AnswerFormatShort, AnswerFormatLong:
		return q.AnswerFormat
	}

	switch q.Type {
	case QuestionTypeEssay, QuestionTypeLongAnswer:
		return AnswerFormatLong
	default:
		return AnswerFormatShort
	}
}

// Assignment represents an instructor-owned question bank with its embedded submissions.
type Assignment struct {
	ID           uint                            `gorm:"primaryKey" json:"id"`
	CourseID     uint                            `gorm:"not null;index" json:"courseId"`
	InstructorID uint                            `gorm:"not null;index" json:"instructorId"`
	Title        string                          `gorm:"size:255;not null" json:"title"`
	Description  string                          `gorm:"type:text" json:"description"`
	Department   string                          `gorm:"size:128" json:"department"`
	DueDate      time.Time                       `gorm:"not null" json:"dueDate"`
	TotalMarks   int                             `gorm:"not null;default:100" json:"totalMarks"`
	Questions    datatypes.JSONSlice[Question]   `gorm:"type:json" json:"questions"`
	Submissions  datatypes.JSONSlice[Submission] `gorm:"type:json" json:"submissions"`
	Version      int64                           `gorm:"not null;default:0" json:"version"`
	CreatedAt    time.Time                       `json:"createdAt"`
	UpdatedAt    time.Time                       `json:"updatedAt"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// FindSubmission returns the embedded submission of the student, if any.
func (a Assignment) FindSubmission(studentID uint) (Submission, int, bool) {
	for idx, submission := range a.Submissions {
		if submission.StudentID == studentID {
			return submission, idx, true
		}
	}
	return Submission{}, -1, false
}

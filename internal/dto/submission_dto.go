package dto

import (
	"time"

	"github.com/noah-isme/gema-lms-api/internal/grading"
	"github.com/noah-isme/gema-lms-api/internal/models"
)

// AnswerRequest is one raw answer. Both fields are pointers so that missing keys are rejected.
type AnswerRequest struct {
	QuestionID *int    `json:"questionId" validate:"required,gte=0"`
	Answer     *string `json:"answer" validate:"required,max=20000"`
}

// SubmitRequest is the body of POST /assignments/:id/submit.
type SubmitRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

// GradingAnswers converts the request into scorer input.
func (r SubmitRequest) GradingAnswers() []grading.Answer {
	answers := make([]grading.Answer, 0, len(r.Answers))
	for _, answer := range r.Answers {
		answers = append(answers, grading.Answer{QuestionID: answer.QuestionID, Text: answer.Answer})
	}
	return answers
}

// SubmissionResponse is the embedded submission returned to API clients.
type SubmissionResponse struct {
	AssignmentID uint                  `json:"assignmentId"`
	StudentID    uint                  `json:"studentId"`
	Answers      []models.GradedAnswer `json:"answers"`
	SubmittedAt  time.Time             `json:"submittedAt"`
	Late         bool                  `json:"late"`
	Evaluation   models.Evaluation     `json:"evaluation"`
}

// SubmitResponse reports the outcome of a submission.
type SubmitResponse struct {
	Submission     SubmissionResponse   `json:"submission"`
	GradedResultID uint                 `json:"gradedResultId"`
	Certificate    *CertificateResponse `json:"certificate,omitempty"`
	Warnings       []string             `json:"warnings,omitempty"`
}

// NewSubmissionResponse converts an embedded submission into a DTO.
func NewSubmissionResponse(assignmentID uint, submission models.Submission) SubmissionResponse {
	answers := submission.Answers
	if answers == nil {
		answers = []models.GradedAnswer{}
	}

	return SubmissionResponse{
		AssignmentID: assignmentID,
		StudentID:    submission.StudentID,
		Answers:      answers,
		SubmittedAt:  submission.SubmittedAt,
		Late:         submission.Late,
		Evaluation:   submission.Evaluation,
	}
}

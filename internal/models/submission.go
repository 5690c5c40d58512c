package models

import "time"

// Evaluation statuses shared by embedded submissions and graded results.
const (
	EvaluationStatusPending   = "pending"
	EvaluationStatusEvaluated = "evaluated"
	EvaluationStatusGraded    = "graded"
)

// GradedAnswer is a single answer together with the credit it earned.
type GradedAnswer struct {
	QuestionID int     `json:"questionId"`
	Answer     string  `json:"answer"`
	Answered   bool    `json:"answered"`
	IsCorrect  bool    `json:"isCorrect"`
	Similarity float64 `json:"similarity"`
	Marks      float64 `json:"marks"`
	MaxMarks   float64 `json:"maxMarks"`
	Feedback   string  `json:"feedback"`
}

// Evaluation summarises the scoring of a submission.
type Evaluation struct {
	TotalMarks  float64 `json:"totalMarks"`
	EarnedMarks float64 `json:"earnedMarks"`
	Percentage  int     `json:"percentage"`
	ScaledScore int     `json:"scaledScore"`
	Status      string  `json:"status"`
	Feedback    string  `json:"feedback"`
}

// Submission is the per-student answer sheet embedded in an assignment.
type Submission struct {
	StudentID   uint           `json:"studentId"`
	Answers     []GradedAnswer `json:"answers"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Late        bool           `json:"late"`
	Evaluation  Evaluation     `json:"evaluation"`
}

// IsEvaluated reports whether the submission carries a final evaluation.
func (s Submission) IsEvaluated() bool {
	return s.Evaluation.Status == EvaluationStatusEvaluated || s.Evaluation.Status == EvaluationStatusGraded
}

package dto

import (
	"time"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// RegradeAnswerRequest assigns instructor marks to one question.
type RegradeAnswerRequest struct {
	QuestionID *int     `json:"questionId" validate:"required,gte=0"`
	Marks      *float64 `json:"marks" validate:"required,gte=0"`
	Feedback   string   `json:"feedback" validate:"omitempty,max=2000"`
}

// RegradeRequest overrides marks on an existing graded result.
type RegradeRequest struct {
	Answers  []RegradeAnswerRequest `json:"answers" validate:"required,min=1,dive"`
	Feedback string                 `json:"feedback" validate:"omitempty,max=5000"`
}

// EvaluateRequest is the body of POST /assignments/:id/evaluate. Without answers the stored
// answers are re-scored with the instructor policy.
type EvaluateRequest struct {
	StudentID uint                   `json:"studentId" validate:"required,gt=0"`
	Answers   []RegradeAnswerRequest `json:"answers" validate:"omitempty,dive"`
	Feedback  string                 `json:"feedback" validate:"omitempty,max=5000"`
}

// GradedResultResponse serialises a graded result.
type GradedResultResponse struct {
	ID                uint                  `json:"id"`
	AssignmentID      uint                  `json:"assignmentId"`
	StudentID         uint                  `json:"studentId"`
	CourseID          uint                  `json:"courseId"`
	Answers           []models.GradedAnswer `json:"answers"`
	TotalMarks        float64               `json:"totalMarks"`
	EarnedMarks       float64               `json:"earnedMarks"`
	Percentage        int                   `json:"percentage"`
	ScaledScore       int                   `json:"scaledScore"`
	Status            string                `json:"status"`
	Feedback          string                `json:"feedback"`
	GradedBy          *uint                 `json:"gradedBy,omitempty"`
	GradedAt          *time.Time            `json:"gradedAt,omitempty"`
	CertificateIssued bool                  `json:"certificateIssued"`
	CertificateID     *uint                 `json:"certificateId,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
	Certificate       *CertificateResponse  `json:"certificate,omitempty"`
	Warnings          []string              `json:"warnings,omitempty"`
}

// ReconcileResponse lists disagreements between embedded submissions and graded results.
type ReconcileResponse struct {
	AssignmentID   uint   `json:"assignmentId"`
	Consistent     bool   `json:"consistent"`
	Submissions    int    `json:"submissions"`
	Results        int    `json:"results"`
	MissingResults []uint `json:"missingResults"`
	OrphanResults  []uint `json:"orphanResults"`
	Mismatched     []uint `json:"mismatched"`
}

// NewGradedResultResponse converts a model into a DTO.
func NewGradedResultResponse(model models.GradedResult) GradedResultResponse {
	answers := []models.GradedAnswer(model.Answers)
	if answers == nil {
		answers = []models.GradedAnswer{}
	}

	return GradedResultResponse{
		ID:                model.ID,
		AssignmentID:      model.AssignmentID,
		StudentID:         model.StudentID,
		CourseID:          model.CourseID,
		Answers:           answers,
		TotalMarks:        model.TotalMarks,
		EarnedMarks:       model.EarnedMarks,
		Percentage:        model.Percentage,
		ScaledScore:       model.ScaledScore,
		Status:            model.Status,
		Feedback:          model.Feedback,
		GradedBy:          model.GradedBy,
		GradedAt:          model.GradedAt,
		CertificateIssued: model.CertificateIssued,
		CertificateID:     model.CertificateID,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

// NewGradedResultResponseSlice converts models into DTOs.
func NewGradedResultResponseSlice(results []models.GradedResult) []GradedResultResponse {
	responses := make([]GradedResultResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, NewGradedResultResponse(result))
	}
	return responses
}

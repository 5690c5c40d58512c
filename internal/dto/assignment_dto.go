package dto

import (
	"time"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

const isoLayout = time.RFC3339

// QuestionRequest describes one entry of a question bank.
type QuestionRequest struct {
	Text          string  `json:"text" validate:"required,max=4000"`
	Type          string  `json:"type" validate:"required,oneof=multiple-choice short-answer essay long-answer"`
	CorrectAnswer string  `json:"correctAnswer" validate:"required,max=8000"`
	Marks         float64 `json:"marks" validate:"gt=0"`
	AnswerFormat  string  `json:"answerFormat" validate:"omitempty,oneof=short long"`
}

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	CourseID    uint              `json:"courseId" validate:"required,gt=0"`
	Title       string            `json:"title" validate:"required,min=3,max=255"`
	Description string            `json:"description" validate:"omitempty,max=10000"`
	Department  string            `json:"department" validate:"omitempty,max=128"`
	DueDate     string            `json:"dueDate" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	TotalMarks  int               `json:"totalMarks" validate:"omitempty,gt=0"`
	Questions   []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// AssignmentUpdateRequest describes the payload for updating an assignment.
// Questions, when present, replace the whole bank.
type AssignmentUpdateRequest struct {
	Title       *string            `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string            `json:"description" validate:"omitempty,max=10000"`
	Department  *string            `json:"department" validate:"omitempty,max=128"`
	DueDate     *string            `json:"dueDate" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	TotalMarks  *int               `json:"totalMarks" validate:"omitempty,gt=0"`
	Questions   *[]QuestionRequest `json:"questions" validate:"omitempty,min=1,dive"`
}

// AssignmentListRequest holds list filters parsed from the query string.
type AssignmentListRequest struct {
	CourseID *uint
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// QuestionResponse serialises a question. CorrectAnswer is only populated for staff.
type QuestionResponse struct {
	ID            int     `json:"id"`
	Text          string  `json:"text"`
	Type          string  `json:"type"`
	Marks         float64 `json:"marks"`
	AnswerFormat  string  `json:"answerFormat"`
	CorrectAnswer string  `json:"correctAnswer,omitempty"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID              uint               `json:"id"`
	CourseID        uint               `json:"courseId"`
	InstructorID    uint               `json:"instructorId"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Department      string             `json:"department"`
	DueDate         string             `json:"dueDate"`
	TotalMarks      int                `json:"totalMarks"`
	Questions       []QuestionResponse `json:"questions"`
	SubmissionCount int                `json:"submissionCount"`
	Version         int64              `json:"version"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// AssignmentListResponse wraps a paginated assignment list.
type AssignmentListResponse struct {
	Items      []AssignmentResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// ToQuestions converts request questions into model questions.
func ToQuestions(requests []QuestionRequest) []models.Question {
	questions := make([]models.Question, 0, len(requests))
	for _, req := range requests {
		questions = append(questions, models.Question{
			Text:          req.Text,
			Type:          models.QuestionType(req.Type),
			CorrectAnswer: req.CorrectAnswer,
			Marks:         req.Marks,
			AnswerFormat:  models.AnswerFormat(req.AnswerFormat),
		})
	}
	return questions
}

// NewAssignmentResponse converts a model into a DTO. Reference answers are only
// included when includeAnswers is set.
func NewAssignmentResponse(model models.Assignment, includeAnswers bool) AssignmentResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for idx, question := range model.Questions {
		item := QuestionResponse{
			ID:           idx,
			Text:         question.Text,
			Type:         string(question.Type),
			Marks:        question.Marks,
			AnswerFormat: string(question.Format()),
		}
		if includeAnswers {
			item.CorrectAnswer = question.CorrectAnswer
		}
		questions = append(questions, item)
	}

	return AssignmentResponse{
		ID:              model.ID,
		CourseID:        model.CourseID,
		InstructorID:    model.InstructorID,
		Title:           model.Title,
		Description:     model.Description,
		Department:      model.Department,
		DueDate:         model.DueDate.UTC().Format(isoLayout),
		TotalMarks:      model.TotalMarks,
		Questions:       questions,
		SubmissionCount: len(model.Submissions),
		Version:         model.Version,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment, includeAnswers bool) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment, includeAnswers))
	}

	return responses
}

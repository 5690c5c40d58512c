package grading

import (
	"errors"
	"fmt"
	"math"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

var (
	// ErrInvalidAnswer indicates an answer entry is missing its question id or text.
	ErrInvalidAnswer = errors.New("invalid answer entry")
	// ErrTooManyAnswers indicates more answers were supplied than the question bank holds.
	ErrTooManyAnswers = errors.New("more answers than questions")
)

// Answer is a raw answer as received from a student. Nil fields mark malformed entries.
type Answer struct {
	QuestionID *int
	Text       *string
}

// Result is the scored answer sheet with its aggregate totals.
type Result struct {
	Answers     []models.GradedAnswer
	EarnedMarks float64
	TotalMarks  float64
	Percentage  int
	ScaledScore int
}

// Evaluation converts the result into the evaluation block stored with submissions.
func (r Result) Evaluation(status, feedback string) models.Evaluation {
	return models.Evaluation{
		TotalMarks:  r.TotalMarks,
		EarnedMarks: r.EarnedMarks,
		Percentage:  r.Percentage,
		ScaledScore: r.ScaledScore,
		Status:      status,
		Feedback:    feedback,
	}
}

// Score grades answers against questions positionally and aggregates the totals.
//
// Questions without a matching answer count towards the total and earn nothing.
// assignmentTotal is the administratively declared maximum the percentage is scaled to.
func Score(questions []models.Question, answers []Answer, assignmentTotal int, policy Policy) (Result, error) {
	if err := ValidateAnswers(answers, len(questions)); err != nil {
		return Result{}, err
	}

	graded := make([]models.GradedAnswer, len(questions))
	for idx, question := range questions {
		if idx >= len(answers) {
			graded[idx] = unanswered(idx, question)
			continue
		}
		graded[idx] = gradeAnswer(*answers[idx].QuestionID, *answers[idx].Text, question, policy)
	}

	return summarize(graded, assignmentTotal), nil
}

// Rescore grades a stored answer sheet again under policy. Entries that were never
// answered stay at zero, and answers beyond the current question bank are dropped.
func Rescore(questions []models.Question, previous []models.GradedAnswer, assignmentTotal int, policy Policy) Result {
	graded := make([]models.GradedAnswer, len(questions))
	for idx, question := range questions {
		if idx >= len(previous) || !previous[idx].Answered {
			graded[idx] = unanswered(idx, question)
			continue
		}
		graded[idx] = gradeAnswer(idx, previous[idx].Answer, question, policy)
	}

	return summarize(graded, assignmentTotal)
}

func gradeAnswer(questionID int, text string, question models.Question, policy Policy) models.GradedAnswer {
	cmp := Compare(text, question.CorrectAnswer, question.Format())
	marks, correct, feedback := policy.grade(question, cmp)

	return models.GradedAnswer{
		QuestionID: questionID,
		Answer:     text,
		Answered:   true,
		IsCorrect:  correct,
		Similarity: cmp.Similarity,
		Marks:      marks,
		MaxMarks:   question.Marks,
		Feedback:   feedback,
	}
}

func unanswered(idx int, question models.Question) models.GradedAnswer {
	return models.GradedAnswer{
		QuestionID: idx,
		MaxMarks:   question.Marks,
		Feedback:   FeedbackUnanswered,
	}
}

func summarize(graded []models.GradedAnswer, assignmentTotal int) Result {
	earned, total := Totals(graded)
	percentage := Percentage(earned, total)

	return Result{
		Answers:     graded,
		EarnedMarks: earned,
		TotalMarks:  total,
		Percentage:  percentage,
		ScaledScore: Scale(percentage, assignmentTotal),
	}
}

// ValidateAnswers rejects the whole answer set when any entry is malformed.
func ValidateAnswers(answers []Answer, questionCount int) error {
	if len(answers) > questionCount {
		return fmt.Errorf("%w: got %d answers for %d questions", ErrTooManyAnswers, len(answers), questionCount)
	}

	for idx, answer := range answers {
		if answer.QuestionID == nil || answer.Text == nil {
			return fmt.Errorf("%w at index %d", ErrInvalidAnswer, idx)
		}
		if *answer.QuestionID < 0 || *answer.QuestionID >= questionCount {
			return fmt.Errorf("%w at index %d: question id %d out of range", ErrInvalidAnswer, idx, *answer.QuestionID)
		}
	}

	return nil
}

// Totals sums earned and available marks over a graded answer sheet.
func Totals(answers []models.GradedAnswer) (earned, total float64) {
	for _, answer := range answers {
		earned += answer.Marks
		total += answer.MaxMarks
	}
	return earned, total
}

// Percentage returns round(100 × earned / total), or 0 when total is 0.
func Percentage(earned, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * earned / total))
}

// Scale maps a percentage onto the assignment's declared total marks.
func Scale(percentage, assignmentTotal int) int {
	return int(math.Round(float64(percentage*assignmentTotal) / 100))
}

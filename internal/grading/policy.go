package grading

import "github.com/noah-isme/gema-lms-api/internal/models"

// Policy selects how comparison results translate into marks.
type Policy int

const (
	// PolicyAutoSubmit grades a first submission: exact credit for short answers,
	// participation credit for long answers.
	PolicyAutoSubmit Policy = iota
	// PolicyInstructorEvaluate grades by similarity tiers and treats an answer
	// as correct once it earns 70% of the question marks.
	PolicyInstructorEvaluate
)

// Feedback strings attached to graded answers.
const (
	FeedbackCorrect          = "Correct answer"
	FeedbackIncorrect        = "Incorrect answer"
	FeedbackExcellent        = "Excellent answer"
	FeedbackNeedsImprovement = "Answer needs improvement"
	FeedbackPartial          = "Partially correct answer"
	FeedbackGoodAttempt      = "Good attempt, some key points are missing"
	FeedbackUnanswered       = "No answer submitted"
)

const (
	participationCredit = 0.3
	correctnessRatio    = 0.7
)

func (p Policy) String() string {
	switch p {
	case PolicyAutoSubmit:
		return "auto_submit"
	case PolicyInstructorEvaluate:
		return "instructor_evaluate"
	default:
		return "unknown"
	}
}

// grade applies the policy to a single answered question.
func (p Policy) grade(question models.Question, cmp Comparison) (marks float64, correct bool, feedback string) {
	full := question.Marks

	if p == PolicyInstructorEvaluate {
		return gradeInstructor(question.Format(), full, cmp)
	}

	if question.Format() == models.AnswerFormatLong {
		if cmp.Correct {
			return full, true, FeedbackExcellent
		}
		return full * participationCredit, false, FeedbackNeedsImprovement
	}

	if cmp.Correct {
		return full, true, FeedbackCorrect
	}
	return 0, false, FeedbackIncorrect
}

func gradeInstructor(format models.AnswerFormat, full float64, cmp Comparison) (float64, bool, string) {
	var marks float64
	var feedback string

	if format == models.AnswerFormatLong {
		switch {
		case cmp.Similarity >= 0.7:
			marks, feedback = full, FeedbackExcellent
		case cmp.Similarity >= 0.4:
			marks, feedback = full*0.7, FeedbackGoodAttempt
		default:
			marks, feedback = full*participationCredit, FeedbackNeedsImprovement
		}
	} else {
		switch {
		case cmp.Similarity >= 0.8:
			marks, feedback = full, FeedbackCorrect
		case cmp.Similarity >= 0.5:
			marks, feedback = full*0.5, FeedbackPartial
		default:
			marks, feedback = 0, FeedbackIncorrect
		}
	}

	return marks, IsCorrectByMarks(marks, full), feedback
}

// IsCorrectByMarks reports whether marks reach 70% of the question total.
func IsCorrectByMarks(marks, questionMarks float64) bool {
	return marks >= correctnessRatio*questionMarks
}

package grading

import "strings"

// Question types understood by the auto-grader.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer"
)

// Q is a minimal view of a question needed for grading.
type Q struct {
	Type          string
	Marks         float64
	CorrectAnswer *string // nil: no key, manual grading only
}

// Result is the outcome of grading a single question.
type Result struct {
	Awarded     float64
	Correct     *bool // nil when unanswered or not auto-gradable
	NeedsManual bool  // true if teacher review is required
}

// Grade scores one question against the submitted answer text (nil when
// the student never answered). Objective types award full marks or zero;
// short answers are left for manual grading. Unknown question types are
// treated like short answers so a single malformed question degrades to
// zero instead of failing the whole submission.
func Grade(q Q, answer *string) Result {
	switch q.Type {
	case TypeMultipleChoice, TypeTrueFalse:
		if answer == nil || q.CorrectAnswer == nil {
			return Result{}
		}
		ok := Match(*answer, *q.CorrectAnswer)
		return Result{Awarded: award(ok, q.Marks), Correct: &ok}
	default:
		return Result{NeedsManual: true}
	}
}

// Match compares a submitted answer to the correct answer, trimming
// surrounding whitespace and folding case on both sides.
func Match(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}

func award(correct bool, marks float64) float64 {
	if correct {
		return marks
	}
	return 0
}

package grading

import "testing"

func strptr(s string) *string { return &s }

func TestMatchTrimsAndFoldsCase(t *testing.T) {
	cases := []struct {
		submitted, correct string
		want               bool
	}{
		{" true ", "True", true},
		{"A", "a", true},
		{"  PARIS", "paris  ", true},
		{"false", "True", false},
		{"", "", true},
	}
	for _, c := range cases {
		if got := Match(c.submitted, c.correct); got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.submitted, c.correct, got, c.want)
		}
	}
}

func TestGradeObjective(t *testing.T) {
	q := Q{Type: TypeMultipleChoice, Marks: 2, CorrectAnswer: strptr("A")}

	res := Grade(q, strptr("a"))
	if res.Awarded != 2 || res.Correct == nil || !*res.Correct {
		t.Errorf("correct answer: got %+v", res)
	}

	res = Grade(q, strptr("B"))
	if res.Awarded != 0 || res.Correct == nil || *res.Correct {
		t.Errorf("wrong answer: got %+v", res)
	}

	// Unanswered: no marks, correctness left unset.
	res = Grade(q, nil)
	if res.Awarded != 0 || res.Correct != nil {
		t.Errorf("unanswered: got %+v", res)
	}

	// No answer key: cannot auto-grade.
	res = Grade(Q{Type: TypeTrueFalse, Marks: 1}, strptr("true"))
	if res.Awarded != 0 || res.Correct != nil {
		t.Errorf("keyless question: got %+v", res)
	}
}

func TestGradeShortAnswerNeedsManual(t *testing.T) {
	res := Grade(Q{Type: TypeShortAnswer, Marks: 5, CorrectAnswer: strptr("essay")}, strptr("my answer"))
	if res.Awarded != 0 || res.Correct != nil || !res.NeedsManual {
		t.Errorf("short answer: got %+v", res)
	}
}

func TestGradeUnknownTypeDegradesToZero(t *testing.T) {
	res := Grade(Q{Type: "matching", Marks: 3, CorrectAnswer: strptr("x")}, strptr("x"))
	if res.Awarded != 0 || res.Correct != nil {
		t.Errorf("unknown type: got %+v", res)
	}
}

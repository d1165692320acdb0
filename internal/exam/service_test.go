package exam_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // driver for "sqlite"

	"github.com/darasahub/darasa/internal/audit"
	"github.com/darasahub/darasa/internal/db"
	"github.com/darasahub/darasa/internal/exam"
	"github.com/darasahub/darasa/internal/student"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	dbh, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatal(err)
	}
	dbh.SetMaxOpenConns(1)
	if err := db.EnsureSchema(context.Background(), dbh, db.DriverSQLite); err != nil {
		t.Fatalf("schema: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

func newTestEngine(t *testing.T) (*exam.Engine, *sql.DB, *audit.Log) {
	t.Helper()
	dbh := newTestDB(t)
	events := audit.NewLog(dbh, "test")
	eng := exam.NewEngine(exam.NewSQLStore(dbh), student.NewDirectory(dbh), events)
	return eng, dbh, events
}

func seedClass(t *testing.T, dbh *sql.DB, id, level string) {
	t.Helper()
	if _, err := dbh.Exec(`INSERT INTO classes (id,name,level) VALUES ($1,$2,$3)`,
		id, "Class "+id, level); err != nil {
		t.Fatalf("seed class: %v", err)
	}
}

func seedStudent(t *testing.T, dbh *sql.DB, userID, studentID string) {
	t.Helper()
	if _, err := dbh.Exec(`INSERT INTO users (id,username,password_hash,role,created_at)
		VALUES ($1,$2,'x','student',0)`, userID, "user-"+userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := dbh.Exec(`INSERT INTO students (id,user_id,first_name,last_name,admission_no)
		VALUES ($1,$2,'Amina','Otieno',$3)`, studentID, userID, "ADM-"+studentID); err != nil {
		t.Fatalf("seed student: %v", err)
	}
}

type seedQ struct {
	id, qtype, correct string
	marks              float64
}

func seedExam(t *testing.T, dbh *sql.DB, examID string, classID *string, startAt, endAt *int64, qs []seedQ) {
	t.Helper()
	if _, err := dbh.Exec(`INSERT INTO exams (id,title,mode,class_id,start_at,end_at,active,created_at)
		VALUES ($1,'Term Exam','online',$2,$3,$4,1,0)`, examID, classID, startAt, endAt); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	for i, q := range qs {
		var correct *string
		if q.correct != "" {
			correct = &q.correct
		}
		if _, err := dbh.Exec(`INSERT INTO questions (id,exam_id,position,qtype,prompt,correct_answer,marks)
			VALUES ($1,$2,$3,$4,'Question?',$5,$6)`, q.id, examID, i+1, q.qtype, correct, q.marks); err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
}

func TestStartAttemptIdempotent(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, dbh, "u1", "s1")
	seedExam(t, dbh, "e1", nil, nil, nil, []seedQ{
		{"q1", "multiple_choice", "A", 2},
		{"q2", "true_false", "True", 3},
	})

	first, err := eng.StartAttempt(ctx, "e1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.Resumed {
		t.Fatal("first start reported as resumed")
	}
	if first.Attempt.MaxScore != 5 {
		t.Fatalf("max_score = %v, want 5", first.Attempt.MaxScore)
	}

	for i := 0; i < 3; i++ {
		again, err := eng.StartAttempt(ctx, "e1", "u1")
		if err != nil {
			t.Fatalf("restart %d: %v", i, err)
		}
		if again.Attempt.ID != first.Attempt.ID {
			t.Fatalf("restart returned attempt %s, want %s", again.Attempt.ID, first.Attempt.ID)
		}
		if !again.Resumed {
			t.Fatal("restart not reported as resumed")
		}
	}

	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM attempts WHERE exam_id='e1' AND student_id='s1'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("attempt rows = %d, want 1", n)
	}
}

func TestStartAttemptRedactsCorrectAnswers(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	seedStudent(t, dbh, "u1", "s1")
	seedExam(t, dbh, "e1", nil, nil, nil, []seedQ{{"q1", "multiple_choice", "A", 1}})

	res, err := eng.StartAttempt(context.Background(), "e1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range res.Questions {
		if q.CorrectAnswer != nil {
			t.Fatalf("question %s leaked correct answer", q.ID)
		}
	}
}

func TestStartAttemptAccessWindow(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, dbh, "u1", "s1")

	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()
	seedExam(t, dbh, "not-open", nil, &future, nil, []seedQ{{"q1", "true_false", "True", 1}})
	seedExam(t, dbh, "closed", nil, nil, &past, []seedQ{{"q2", "true_false", "True", 1}})

	if _, err := eng.StartAttempt(ctx, "not-open", "u1"); !errors.Is(err, exam.ErrExamNotYetOpen) {
		t.Fatalf("future exam: got %v, want ErrExamNotYetOpen", err)
	}
	if _, err := eng.StartAttempt(ctx, "closed", "u1"); !errors.Is(err, exam.ErrExamClosed) {
		t.Fatalf("closed exam: got %v, want ErrExamClosed", err)
	}

	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM attempts`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rejected starts created %d attempt rows", n)
	}
}

func TestStartAttemptRejectsNonStudents(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	seedExam(t, dbh, "e1", nil, nil, nil, nil)
	if _, err := eng.StartAttempt(context.Background(), "e1", "nobody"); !errors.Is(err, exam.ErrNotAStudent) {
		t.Fatalf("got %v, want ErrNotAStudent", err)
	}
}

func TestStartAttemptRejectsOfflineExam(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	seedStudent(t, dbh, "u1", "s1")
	if _, err := dbh.Exec(`INSERT INTO exams (id,title,mode,active,created_at)
		VALUES ('paper','Paper Exam','offline',1,0)`); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.StartAttempt(context.Background(), "paper", "u1"); !errors.Is(err, exam.ErrExamNotFound) {
		t.Fatalf("got %v, want ErrExamNotFound", err)
	}
}

func TestSaveAnswerUpsert(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, dbh, "u1", "s1")
	seedExam(t, dbh, "e1", nil, nil, nil, []seedQ{{"q1", "multiple_choice", "A", 1}})
	seedExam(t, dbh, "other", nil, nil, nil, []seedQ{{"qx", "multiple_choice", "B", 1}})

	if err := eng.SaveAnswer(ctx, "e1", "u1", "q1", "first"); !errors.Is(err, exam.ErrNoActiveAttempt) {
		t.Fatalf("save without attempt: got %v, want ErrNoActiveAttempt", err)
	}

	if _, err := eng.StartAttempt(ctx, "e1", "u1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.SaveAnswer(ctx, "e1", "u1", "q1", "first"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := eng.SaveAnswer(ctx, "e1", "u1", "q1", "second"); err != nil {
		t.Fatalf("resave: %v", err)
	}

	state, err := eng.ActiveAttempt(ctx, "e1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Answers) != 1 {
		t.Fatalf("answer rows = %d, want 1", len(state.Answers))
	}
	if state.Answers[0].Text != "second" {
		t.Fatalf("answer text = %q, want %q", state.Answers[0].Text, "second")
	}

	// Question from another exam is rejected.
	if err := eng.SaveAnswer(ctx, "e1", "u1", "qx", "x"); !errors.Is(err, exam.ErrQuestionNotFound) {
		t.Fatalf("foreign question: got %v, want ErrQuestionNotFound", err)
	}
}

func TestSubmitFullObjectiveExam(t *testing.T) {
	eng, dbh, events := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, dbh, "u1", "s1")
	seedExam(t, dbh, "e1", nil, nil, nil, []seedQ{
		{"q1", "multiple_choice", "A", 2},
		{"q2", "true_false", "True", 3},
	})

	if _, err := eng.StartAttempt(ctx, "e1", "u1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.SaveAnswer(ctx, "e1", "u1", "q1", "a"); err != nil {
		t.Fatal(err)
	}
	if err := eng.SaveAnswer(ctx, "e1", "u1", "q2", "false"); err != nil {
		t.Fatal(err)
	}

	res, err := eng.Submit(ctx, "e1", "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.TotalScore != 2 || res.MaxScore != 5 || res.Percentage != 40 {
		t.Fatalf("score = %v/%v (%v%%), want 2/5 (40%%)", res.TotalScore, res.MaxScore, res.Percentage)
	}
	// No class on the exam: default table, 40% is a Pass.
	if res.Grade != "Pass" {
		t.Fatalf("grade = %q, want Pass", res.Grade)
	}
	if len(res.Breakdown) != 2 {
		t.Fatalf("breakdown rows = %d, want 2", len(res.Breakdown))
	}
	for _, qr := range res.Breakdown {
		if qr.CorrectAnswer == nil {
			t.Fatalf("post-submission breakdown missing correct answer for %s", qr.QuestionID)
		}
	}

	// Ledger row created.
	var marks, max float64
	var grade string
	if err := dbh.QueryRow(`SELECT marks_obtained,max_marks,grade FROM exam_results
		WHERE exam_id='e1' AND student_id='s1'`).Scan(&marks, &max, &grade); err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if marks != 2 || max != 5 || grade != "Pass" {
		t.Fatalf("ledger = %v/%v %q", marks, max, grade)
	}

	// Submission recorded in the event log.
	evs, err := events.Since(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 || evs[0].Type != "AttemptSubmitted" {
		t.Fatalf("events = %+v, want one AttemptSubmitted", evs)
	}
}

func TestSubmitUsesClassificationBands(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	ctx := context.Background()
	seedClass(t, dbh, "c1", "lower_primary")
	seedStudent(t, dbh, "u1", "s1")
	classID := "c1"
	seedExam(t, dbh, "e1", &classID, nil, nil, []seedQ{
		{"q1", "true_false", "True", 1},
		{"q2", "true_false", "True", 1},
	})

	if _, err := eng.StartAttempt(ctx, "e1", "u1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.SaveAnswer(ctx, "e1", "u1", "q1", "true"); err != nil {
		t.Fatal(err)
	}
	res, err := eng.Submit(ctx, "e1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	// 1/2 = 50%: ME on the CBC table.
	if res.Grade != "ME" {
		t.Fatalf("grade = %q, want ME", res.Grade)
	}
}

func TestSubmitShortAnswerLeftForManualGrading(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, dbh, "u1", "s1")
	seedExam(t, dbh, "e1", nil, nil, nil, []seedQ{{"q1", "short_answer", "", 5}})

	if _, err := eng.StartAttempt(ctx, "e1", "u1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.SaveAnswer(ctx, "e1", "u1", "q1", "my answer"); err != nil {
		t.Fatal(err)
	}
	res, err := eng.Submit(ctx, "e1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalScore != 0 || res.MaxScore != 5 || res.Percentage != 0 {
		t.Fatalf("score = %v/%v (%v%%), want 0/5 (0%%)", res.TotalScore, res.MaxScore, res.Percentage)
	}
	if res.Grade != "Fail" {
		t.Fatalf("grade = %q, want Fail", res.Grade)
	}
	if res.Breakdown[0].Correct != nil {
		t.Fatal("short answer has a correctness flag")
	}
}

func TestSubmitTwiceFails(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, dbh, "u1", "s1")
	seedExam(t, dbh, "e1", nil, nil, nil, []seedQ{{"q1", "true_false", "True", 1}})

	if _, err := eng.StartAttempt(ctx, "e1", "u1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.SaveAnswer(ctx, "e1", "u1", "q1", "true"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Submit(ctx, "e1", "u1"); err != nil {
		t.Fatal(err)
	}

	if _, err := eng.Submit(ctx, "e1", "u1"); !errors.Is(err, exam.ErrAlreadySubmitted) {
		t.Fatalf("resubmit: got %v, want ErrAlreadySubmitted", err)
	}
	// Saving after submission is rejected too.
	if err := eng.SaveAnswer(ctx, "e1", "u1", "q1", "false"); !errors.Is(err, exam.ErrAlreadySubmitted) {
		t.Fatalf("save after submit: got %v, want ErrAlreadySubmitted", err)
	}

	var total float64
	if err := dbh.QueryRow(`SELECT total_score FROM attempts WHERE exam_id='e1' AND student_id='s1'`).Scan(&total); err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("stored total changed to %v", total)
	}
}

func TestMaxScoreSnapshotStable(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, dbh, "u1", "s1")
	seedExam(t, dbh, "e1", nil, nil, nil, []seedQ{{"q1", "true_false", "True", 5}})

	if _, err := eng.StartAttempt(ctx, "e1", "u1"); err != nil {
		t.Fatal(err)
	}
	// Weight edited after the student started.
	if _, err := dbh.Exec(`UPDATE questions SET marks=50 WHERE id='q1'`); err != nil {
		t.Fatal(err)
	}
	if err := eng.SaveAnswer(ctx, "e1", "u1", "q1", "false"); err != nil {
		t.Fatal(err)
	}
	res, err := eng.Submit(ctx, "e1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if res.MaxScore != 5 {
		t.Fatalf("max_score = %v, want the value snapshotted at start (5)", res.MaxScore)
	}
}

func TestMyResult(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, dbh, "u1", "s1")
	seedExam(t, dbh, "e1", nil, nil, nil, []seedQ{{"q1", "multiple_choice", "A", 2}})

	if _, _, err := eng.MyResult(ctx, "e1", "u1"); !errors.Is(err, exam.ErrNoSubmittedAttempt) {
		t.Fatalf("no attempt: got %v, want ErrNoSubmittedAttempt", err)
	}

	if _, err := eng.StartAttempt(ctx, "e1", "u1"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := eng.MyResult(ctx, "e1", "u1"); !errors.Is(err, exam.ErrNoSubmittedAttempt) {
		t.Fatalf("in progress: got %v, want ErrNoSubmittedAttempt", err)
	}

	if err := eng.SaveAnswer(ctx, "e1", "u1", "q1", " A "); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Submit(ctx, "e1", "u1"); err != nil {
		t.Fatal(err)
	}

	attempt, breakdown, err := eng.MyResult(ctx, "e1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if attempt.Status != exam.StatusSubmitted || attempt.TotalScore == nil || *attempt.TotalScore != 2 {
		t.Fatalf("attempt = %+v", attempt)
	}
	qr := breakdown[0]
	if qr.CorrectAnswer == nil || *qr.CorrectAnswer != "A" {
		t.Fatal("own graded result must include the correct answer")
	}
	if qr.YourAnswer == nil || *qr.YourAnswer != " A " {
		t.Fatalf("your_answer = %v", qr.YourAnswer)
	}
	if qr.Correct == nil || !*qr.Correct {
		t.Fatal("trimmed case-insensitive match should be correct")
	}
}

func TestResultsForExamOrdering(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, dbh, "u1", "s1")
	seedStudent(t, dbh, "u2", "s2")
	seedExam(t, dbh, "e1", nil, nil, nil, []seedQ{
		{"q1", "true_false", "True", 1},
		{"q2", "true_false", "True", 1},
	})

	for _, c := range []struct{ user, a1, a2 string }{
		{"u1", "false", "false"}, // 0/2
		{"u2", "true", "true"},   // 2/2
	} {
		if _, err := eng.StartAttempt(ctx, "e1", c.user); err != nil {
			t.Fatal(err)
		}
		if err := eng.SaveAnswer(ctx, "e1", c.user, "q1", c.a1); err != nil {
			t.Fatal(err)
		}
		if err := eng.SaveAnswer(ctx, "e1", c.user, "q2", c.a2); err != nil {
			t.Fatal(err)
		}
		if _, err := eng.Submit(ctx, "e1", c.user); err != nil {
			t.Fatal(err)
		}
	}

	list, err := eng.ResultsForExam(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("results = %d, want 2", len(list))
	}
	if list[0].StudentID != "s2" || list[1].StudentID != "s1" {
		t.Fatalf("ordering: got %s then %s, want s2 then s1", list[0].StudentID, list[1].StudentID)
	}
	if list[0].StudentName == "" {
		t.Fatal("missing student identity")
	}
}

func TestEnterOfflineResultsSharesBandTable(t *testing.T) {
	eng, dbh, _ := newTestEngine(t)
	ctx := context.Background()
	seedClass(t, dbh, "c1", "secondary")
	seedStudent(t, dbh, "u1", "s1")
	classID := "c1"
	seedExam(t, dbh, "e1", &classID, nil, nil, nil)

	out, err := eng.EnterOfflineResults(ctx, "e1", []exam.ResultRow{
		{StudentID: "s1", MarksObtained: 59.9, MaxMarks: 100},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Grade != "C" {
		t.Fatalf("grade = %q, want C", out[0].Grade)
	}

	// Re-entry updates the same ledger row in place.
	if _, err := eng.EnterOfflineResults(ctx, "e1", []exam.ResultRow{
		{StudentID: "s1", MarksObtained: 80, MaxMarks: 100},
	}); err != nil {
		t.Fatal(err)
	}
	var n int
	var grade string
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM exam_results WHERE exam_id='e1'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if err := dbh.QueryRow(`SELECT grade FROM exam_results WHERE exam_id='e1' AND student_id='s1'`).Scan(&grade); err != nil {
		t.Fatal(err)
	}
	if n != 1 || grade != "A" {
		t.Fatalf("ledger rows=%d grade=%q, want 1 row graded A", n, grade)
	}
}

func TestPublishResults(t *testing.T) {
	eng, dbh, events := newTestEngine(t)
	ctx := context.Background()
	seedExam(t, dbh, "e1", nil, nil, nil, nil)

	if err := eng.PublishResults(ctx, "e1"); err != nil {
		t.Fatal(err)
	}
	var published bool
	if err := dbh.QueryRow(`SELECT results_published FROM exams WHERE id='e1'`).Scan(&published); err != nil {
		t.Fatal(err)
	}
	if !published {
		t.Fatal("results_published not set")
	}
	evs, err := events.Since(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 || evs[0].Type != "ResultsPublished" {
		t.Fatalf("events = %+v", evs)
	}

	if err := eng.PublishResults(ctx, "missing"); !errors.Is(err, exam.ErrExamNotFound) {
		t.Fatalf("missing exam: got %v, want ErrExamNotFound", err)
	}
}

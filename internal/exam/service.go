package exam

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/darasahub/darasa/internal/grading"
)

// StudentResolver maps an authenticated user to a student identity.
type StudentResolver interface {
	ResolveStudent(ctx context.Context, userID string) (studentID string, err error)
}

// EventSink records lifecycle events (attempt submitted, results
// published) for offline sync and diagnostics. Append failures must not
// fail the operation that produced the event.
type EventSink interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// Engine owns the attempt lifecycle. It holds no state between calls and
// is safe behind any number of stateless handlers; the single
// concurrency-sensitive point (attempt creation) is resolved by the
// storage layer's uniqueness constraint.
type Engine struct {
	store    Store
	students StudentResolver
	events   EventSink
	now      func() time.Time
}

func NewEngine(store Store, students StudentResolver, events EventSink) *Engine {
	return &Engine{store: store, students: students, events: events, now: time.Now}
}

// StartAttempt checks eligibility and creates the attempt for
// (exam, caller) unless one exists; a duplicate start is success, not
// error, so a page refresh mid-exam resumes cleanly.
func (e *Engine) StartAttempt(ctx context.Context, examID, userID string) (StartResult, error) {
	studentID, err := e.students.ResolveStudent(ctx, userID)
	if err != nil {
		return StartResult{}, err
	}
	ex, err := e.store.GetExam(ctx, examID)
	if err != nil {
		return StartResult{}, err
	}
	if ex.Mode != ModeOnline || !ex.Active {
		return StartResult{}, ErrExamNotFound
	}
	now := e.now().Unix()
	if ex.StartAt != nil && now < *ex.StartAt {
		return StartResult{}, ErrExamNotYetOpen
	}
	if ex.EndAt != nil && now > *ex.EndAt {
		return StartResult{}, ErrExamClosed
	}

	qs, err := e.store.QuestionsForExam(ctx, examID)
	if err != nil {
		return StartResult{}, err
	}
	maxScore := 0.0
	for _, q := range qs {
		maxScore += marksOrDefault(q.Marks)
	}

	a, created, err := e.store.CreateAttemptIfAbsent(ctx, Attempt{
		ID:        uuid.NewString(),
		ExamID:    examID,
		StudentID: studentID,
		Status:    StatusInProgress,
		StartedAt: now,
		MaxScore:  maxScore,
	})
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{
		Attempt:   a,
		Exam:      ex,
		Questions: redactQuestions(qs),
		Resumed:   !created,
	}, nil
}

// ActiveAttempt returns the caller's attempt (any status) with its saved
// answers, for crash/refresh recovery. Read-only.
func (e *Engine) ActiveAttempt(ctx context.Context, examID, userID string) (AttemptState, error) {
	studentID, err := e.students.ResolveStudent(ctx, userID)
	if err != nil {
		return AttemptState{}, err
	}
	a, err := e.store.AttemptForStudent(ctx, examID, studentID)
	if err != nil {
		return AttemptState{}, err
	}
	answers, err := e.store.AnswersForAttempt(ctx, a.ID)
	if err != nil {
		return AttemptState{}, err
	}
	return AttemptState{Attempt: a, Answers: answers}, nil
}

// SaveAnswer upserts the answer text for one question while the attempt
// is in progress. No grading happens here.
func (e *Engine) SaveAnswer(ctx context.Context, examID, userID, questionID, text string) error {
	studentID, err := e.students.ResolveStudent(ctx, userID)
	if err != nil {
		return err
	}
	a, err := e.store.AttemptForStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return ErrNoActiveAttempt
		}
		return err
	}
	if a.Status != StatusInProgress {
		return ErrAlreadySubmitted
	}
	return e.store.UpsertAnswer(ctx, a.ID, examID, questionID, text)
}

// Submit grades the attempt exactly once and writes the aggregate result
// row. Scoring is independent per question; a malformed question scores
// zero rather than failing the submission.
func (e *Engine) Submit(ctx context.Context, examID, userID string) (SubmitResult, error) {
	studentID, err := e.students.ResolveStudent(ctx, userID)
	if err != nil {
		return SubmitResult{}, err
	}
	a, err := e.store.AttemptForStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return SubmitResult{}, ErrNoActiveAttempt
		}
		return SubmitResult{}, err
	}
	if a.Status != StatusInProgress {
		return SubmitResult{}, ErrAlreadySubmitted
	}

	level, err := e.store.LevelForExam(ctx, examID)
	if err != nil {
		return SubmitResult{}, err
	}
	classification := grading.ClassificationForLevel(level)

	qs, err := e.store.QuestionsForExam(ctx, examID)
	if err != nil {
		return SubmitResult{}, err
	}
	answers, err := e.store.AnswersForAttempt(ctx, a.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	byQuestion := make(map[string]Answer, len(answers))
	for _, ans := range answers {
		byQuestion[ans.QuestionID] = ans
	}

	total := 0.0
	grades := make([]AnswerGrade, 0, len(answers))
	breakdown := make([]QuestionResult, 0, len(qs))
	for _, q := range qs {
		qr := QuestionResult{
			QuestionID:    q.ID,
			Prompt:        q.Prompt,
			Type:          q.Type,
			Marks:         marksOrDefault(q.Marks),
			CorrectAnswer: q.CorrectAnswer,
		}
		ans, answered := byQuestion[q.ID]
		var submitted *string
		if answered {
			text := ans.Text
			submitted = &text
			qr.YourAnswer = submitted
		}
		res := grading.Grade(grading.Q{
			Type:          q.Type,
			Marks:         qr.Marks,
			CorrectAnswer: q.CorrectAnswer,
		}, submitted)
		qr.MarksAwarded = res.Awarded
		qr.Correct = res.Correct
		total += res.Awarded
		if answered {
			grades = append(grades, AnswerGrade{
				QuestionID:   q.ID,
				Correct:      res.Correct,
				MarksAwarded: res.Awarded,
			})
		}
		breakdown = append(breakdown, qr)
	}

	if err := e.store.GradeAnswers(ctx, a.ID, grades); err != nil {
		return SubmitResult{}, err
	}

	// max_score stays as snapshotted at start so weight edits after a
	// student began never change their denominator.
	pct := grading.Percentage(total, a.MaxScore)
	label := grading.Band(pct, classification)
	now := e.now().Unix()
	elapsed := now - a.StartedAt
	if elapsed < 0 {
		elapsed = 0
	}
	ok, err := e.store.FinalizeAttempt(ctx, a.ID, Finalization{
		SubmittedAt: now,
		TotalScore:  total,
		GradeLabel:  label,
		ElapsedSec:  elapsed,
	})
	if err != nil {
		return SubmitResult{}, err
	}
	if !ok {
		return SubmitResult{}, ErrAlreadySubmitted
	}

	if err := e.store.UpsertResult(ctx, ResultRow{
		ExamID:        examID,
		StudentID:     studentID,
		MarksObtained: total,
		MaxMarks:      a.MaxScore,
		Grade:         label,
	}); err != nil {
		return SubmitResult{}, err
	}

	if e.events != nil {
		if err := e.events.Append(ctx, "AttemptSubmitted", a.ID, map[string]any{
			"exam_id":     examID,
			"student_id":  studentID,
			"total_score": total,
			"max_score":   a.MaxScore,
			"grade":       label,
		}); err != nil {
			log.Printf("event append failed exam=%s student=%s: %v", examID, studentID, err)
		}
	}

	return SubmitResult{
		TotalScore: total,
		MaxScore:   a.MaxScore,
		Percentage: math.Round(pct),
		Grade:      label,
		Breakdown:  breakdown,
	}, nil
}

// MyResult returns the caller's own submitted attempt with the full
// breakdown. Correct answers are permitted here: the student is looking
// at their own graded result.
func (e *Engine) MyResult(ctx context.Context, examID, userID string) (Attempt, []QuestionResult, error) {
	studentID, err := e.students.ResolveStudent(ctx, userID)
	if err != nil {
		return Attempt{}, nil, err
	}
	a, err := e.store.AttemptForStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return Attempt{}, nil, ErrNoSubmittedAttempt
		}
		return Attempt{}, nil, err
	}
	if a.Status != StatusSubmitted {
		return Attempt{}, nil, ErrNoSubmittedAttempt
	}
	breakdown, err := e.breakdownFor(ctx, examID, a.ID)
	if err != nil {
		return Attempt{}, nil, err
	}
	return a, breakdown, nil
}

// ResultsForExam lists all attempts for an exam ordered by score
// descending, with student identity. Role enforcement is the caller's
// responsibility.
func (e *Engine) ResultsForExam(ctx context.Context, examID string) ([]AttemptSummary, error) {
	if _, err := e.store.GetExam(ctx, examID); err != nil {
		return nil, err
	}
	return e.store.AttemptsForExam(ctx, examID)
}

// ExamForViewer returns the exam and its questions, stripping correct
// answers unless the viewer is privileged.
func (e *Engine) ExamForViewer(ctx context.Context, examID string, privileged bool) (Exam, []Question, error) {
	ex, err := e.store.GetExam(ctx, examID)
	if err != nil {
		return Exam{}, nil, err
	}
	qs, err := e.store.QuestionsForExam(ctx, examID)
	if err != nil {
		return Exam{}, nil, err
	}
	if !privileged {
		qs = redactQuestions(qs)
	}
	return ex, qs, nil
}

// CreateExam persists a new exam with its ordered questions, assigning
// ids where absent.
func (e *Engine) CreateExam(ctx context.Context, ex Exam, qs []Question) (Exam, []Question, error) {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.Mode == "" {
		ex.Mode = ModeOffline
	}
	ex.Active = true
	for i := range qs {
		if qs[i].ID == "" {
			qs[i].ID = uuid.NewString()
		}
		qs[i].ExamID = ex.ID
		if qs[i].Position == 0 {
			qs[i].Position = i + 1
		}
		if qs[i].Marks <= 0 {
			qs[i].Marks = 1
		}
	}
	if err := e.store.PutExam(ctx, ex, qs); err != nil {
		return Exam{}, nil, err
	}
	return ex, qs, nil
}

func (e *Engine) ListExams(ctx context.Context, opts ListOpts) ([]Exam, error) {
	return e.store.ListExams(ctx, opts)
}

// PublishResults flips the results-published flag and records the event.
func (e *Engine) PublishResults(ctx context.Context, examID string) error {
	if err := e.store.SetResultsPublished(ctx, examID, true); err != nil {
		return err
	}
	if e.events != nil {
		if err := e.events.Append(ctx, "ResultsPublished", examID, nil); err != nil {
			log.Printf("event append failed exam=%s: %v", examID, err)
		}
	}
	return nil
}

// EnterOfflineResults banded-upserts manually-marked results for an exam.
// Same percentage-to-band table as the online submit path.
func (e *Engine) EnterOfflineResults(ctx context.Context, examID string, rows []ResultRow) ([]ResultRow, error) {
	if _, err := e.store.GetExam(ctx, examID); err != nil {
		return nil, err
	}
	level, err := e.store.LevelForExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	classification := grading.ClassificationForLevel(level)
	out := make([]ResultRow, 0, len(rows))
	for _, r := range rows {
		r.ExamID = examID
		r.Grade = grading.Band(grading.Percentage(r.MarksObtained, r.MaxMarks), classification)
		if err := e.store.UpsertResult(ctx, r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (e *Engine) breakdownFor(ctx context.Context, examID, attemptID string) ([]QuestionResult, error) {
	qs, err := e.store.QuestionsForExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	answers, err := e.store.AnswersForAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[string]Answer, len(answers))
	for _, ans := range answers {
		byQuestion[ans.QuestionID] = ans
	}
	out := make([]QuestionResult, 0, len(qs))
	for _, q := range qs {
		qr := QuestionResult{
			QuestionID:    q.ID,
			Prompt:        q.Prompt,
			Type:          q.Type,
			Marks:         marksOrDefault(q.Marks),
			CorrectAnswer: q.CorrectAnswer,
		}
		if ans, ok := byQuestion[q.ID]; ok {
			text := ans.Text
			qr.YourAnswer = &text
			qr.Correct = ans.Correct
			qr.MarksAwarded = ans.MarksAwarded
		}
		out = append(out, qr)
	}
	return out, nil
}

func marksOrDefault(m float64) float64 {
	if m <= 0 {
		return 1
	}
	return m
}

func redactQuestions(qs []Question) []Question {
	out := make([]Question, len(qs))
	copy(out, qs)
	for i := range out {
		out[i].CorrectAnswer = nil
	}
	return out
}

package exam

import "context"

type ListOpts struct {
	ClassID string // filter by class
	Mode    string // optional: offline|online
	Limit   int
	Offset  int
}

// AnswerGrade carries the write-once grading outcome for one answer row.
type AnswerGrade struct {
	QuestionID   string
	Correct      *bool
	MarksAwarded float64
}

// Finalization is the terminal state written to an attempt on submit.
type Finalization struct {
	SubmittedAt int64
	TotalScore  float64
	GradeLabel  string
	ElapsedSec  int64
}

// Store is the storage boundary of the attempt engine. Each method is a
// single logical operation; the implementation decides batching. Upserts
// resolve conflicts at the storage layer (ON CONFLICT), not by
// read-then-write application logic.
type Store interface {
	PutExam(ctx context.Context, e Exam, qs []Question) error
	GetExam(ctx context.Context, id string) (Exam, error)
	ListExams(ctx context.Context, opts ListOpts) ([]Exam, error)
	SetResultsPublished(ctx context.Context, examID string, published bool) error

	// LevelForExam resolves the education level of the exam's class;
	// empty when the exam has no class or the class has no level.
	LevelForExam(ctx context.Context, examID string) (string, error)

	QuestionsForExam(ctx context.Context, examID string) ([]Question, error)

	// CreateAttemptIfAbsent inserts the attempt unless one already exists
	// for (exam, student); either way it returns the persisted row.
	// created is false on the idempotent-return path.
	CreateAttemptIfAbsent(ctx context.Context, a Attempt) (out Attempt, created bool, err error)

	// AttemptForStudent returns the attempt for (exam, student) in any
	// status, or ErrAttemptNotFound.
	AttemptForStudent(ctx context.Context, examID, studentID string) (Attempt, error)

	// UpsertAnswer overwrites the answer text for (attempt, question),
	// creating the row on first write. ErrQuestionNotFound when the
	// question does not belong to the exam.
	UpsertAnswer(ctx context.Context, attemptID, examID, questionID, text string) error

	AnswersForAttempt(ctx context.Context, attemptID string) ([]Answer, error)

	// GradeAnswers persists correctness and awarded marks for the given
	// answers in one transaction.
	GradeAnswers(ctx context.Context, attemptID string, grades []AnswerGrade) error

	// FinalizeAttempt transitions in_progress -> submitted, guarded on
	// the current status. Returns false if the attempt was not
	// in_progress (lost the race or already submitted).
	FinalizeAttempt(ctx context.Context, attemptID string, fin Finalization) (bool, error)

	// AttemptsForExam lists attempts ordered by total score descending,
	// joined with student identity.
	AttemptsForExam(ctx context.Context, examID string) ([]AttemptSummary, error)

	// UpsertResult creates or updates the aggregate ledger row.
	UpsertResult(ctx context.Context, r ResultRow) error
}

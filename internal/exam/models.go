package exam

// Exam modes.
const (
	ModeOffline = "offline"
	ModeOnline  = "online"
)

// Attempt statuses. The only legal transition is in_progress -> submitted.
const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

type Exam struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Mode             string  `json:"mode"` // offline|online
	ClassID          *string `json:"class_id,omitempty"`
	StartAt          *int64  `json:"start_at,omitempty"` // unix seconds
	EndAt            *int64  `json:"end_at,omitempty"`
	DurationMin      *int    `json:"duration_min,omitempty"`
	Instructions     string  `json:"instructions,omitempty"`
	Active           bool    `json:"active"`
	ResultsPublished bool    `json:"results_published"`
	CreatedAt        int64   `json:"created_at,omitempty"`
}

type Question struct {
	ID       string   `json:"id"`
	ExamID   string   `json:"exam_id,omitempty"`
	Position int      `json:"position"`
	Type     string   `json:"type"` // multiple_choice|true_false|short_answer
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options,omitempty"`
	// Redacted from student-facing payloads; only present post-submission
	// in the caller's own breakdown, or for privileged viewers.
	CorrectAnswer *string `json:"correct_answer,omitempty"`
	Marks         float64 `json:"marks"`
}

type Attempt struct {
	ID          string   `json:"id"`
	ExamID      string   `json:"exam_id"`
	StudentID   string   `json:"student_id"`
	Status      string   `json:"status"`
	StartedAt   int64    `json:"started_at"`
	SubmittedAt *int64   `json:"submitted_at,omitempty"`
	TotalScore  *float64 `json:"total_score,omitempty"`
	MaxScore    float64  `json:"max_score"`
	GradeLabel  *string  `json:"grade_label,omitempty"`
	ElapsedSec  *int64   `json:"elapsed_sec,omitempty"`
}

type Answer struct {
	AttemptID    string  `json:"attempt_id,omitempty"`
	QuestionID   string  `json:"question_id"`
	Text         string  `json:"answer_text"`
	Correct      *bool   `json:"is_correct,omitempty"`
	MarksAwarded float64 `json:"marks_awarded"`
}

// AttemptSummary joins an attempt with identifying student info for the
// privileged per-exam results listing.
type AttemptSummary struct {
	Attempt
	StudentName string `json:"student_name"`
	AdmissionNo string `json:"admission_no,omitempty"`
}

// StartResult is what a student gets back from StartAttempt: the attempt,
// the exam definition, and the ordered questions with keys stripped.
type StartResult struct {
	Attempt   Attempt    `json:"attempt"`
	Exam      Exam       `json:"exam"`
	Questions []Question `json:"questions"`
	Resumed   bool       `json:"resumed"` // true when an existing attempt was returned
}

// AttemptState is the recovery payload: the attempt plus saved answers.
type AttemptState struct {
	Attempt Attempt  `json:"attempt"`
	Answers []Answer `json:"answers"`
}

// QuestionResult is one row of the post-submission breakdown.
type QuestionResult struct {
	QuestionID    string  `json:"question_id"`
	Prompt        string  `json:"prompt"`
	Type          string  `json:"type"`
	Marks         float64 `json:"marks"`
	MarksAwarded  float64 `json:"marks_awarded"`
	Correct       *bool   `json:"is_correct,omitempty"`
	YourAnswer    *string `json:"your_answer,omitempty"`
	CorrectAnswer *string `json:"correct_answer,omitempty"`
}

type SubmitResult struct {
	TotalScore float64          `json:"total_score"`
	MaxScore   float64          `json:"max_score"`
	Percentage float64          `json:"percentage"` // rounded to nearest integer
	Grade      string           `json:"cbc_grade"`
	Breakdown  []QuestionResult `json:"breakdown"`
}

// ResultRow is the aggregate ledger row for (exam, student), consumed by
// reporting elsewhere in the system.
type ResultRow struct {
	ExamID        string  `json:"exam_id"`
	StudentID     string  `json:"student_id"`
	MarksObtained float64 `json:"marks_obtained"`
	MaxMarks      float64 `json:"max_marks"`
	Grade         string  `json:"grade"`
}

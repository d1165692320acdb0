package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLStore implements Store over database/sql. The SQL is written to run
// unchanged on both the sqlite and pgx drivers ($1 placeholders, ON
// CONFLICT upserts).
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutExam(ctx context.Context, e Exam, qs []Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO exams
		(id,title,mode,class_id,start_at,end_at,duration_min,instructions,active,results_published,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			title=EXCLUDED.title, mode=EXCLUDED.mode, class_id=EXCLUDED.class_id,
			start_at=EXCLUDED.start_at, end_at=EXCLUDED.end_at,
			duration_min=EXCLUDED.duration_min, instructions=EXCLUDED.instructions,
			active=EXCLUDED.active`,
		e.ID, e.Title, e.Mode, e.ClassID, e.StartAt, e.EndAt, e.DurationMin,
		e.Instructions, e.Active, e.ResultsPublished, time.Now().Unix())
	if err != nil {
		return err
	}
	for _, q := range qs {
		oj, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO questions
			(id,exam_id,position,qtype,prompt,options_json,correct_answer,marks)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO UPDATE SET
				position=EXCLUDED.position, qtype=EXCLUDED.qtype, prompt=EXCLUDED.prompt,
				options_json=EXCLUDED.options_json, correct_answer=EXCLUDED.correct_answer,
				marks=EXCLUDED.marks`,
			q.ID, e.ID, q.Position, q.Type, q.Prompt, string(oj), q.CorrectAnswer, q.Marks)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,mode,class_id,start_at,end_at,
		duration_min,instructions,active,results_published,created_at
		FROM exams WHERE id=$1`, id)
	var e Exam
	if err := row.Scan(&e.ID, &e.Title, &e.Mode, &e.ClassID, &e.StartAt, &e.EndAt,
		&e.DurationMin, &e.Instructions, &e.Active, &e.ResultsPublished, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrExamNotFound
		}
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) ListExams(ctx context.Context, opts ListOpts) ([]Exam, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,mode,class_id,start_at,end_at,
		duration_min,instructions,active,results_published,created_at
		FROM exams
		WHERE ($1 = '' OR class_id = $1) AND ($2 = '' OR mode = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		opts.ClassID, opts.Mode, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Mode, &e.ClassID, &e.StartAt, &e.EndAt,
			&e.DurationMin, &e.Instructions, &e.Active, &e.ResultsPublished, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetResultsPublished(ctx context.Context, examID string, published bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE exams SET results_published=$1 WHERE id=$2`, published, examID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExamNotFound
	}
	return nil
}

func (s *SQLStore) LevelForExam(ctx context.Context, examID string) (string, error) {
	var level sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT c.level FROM exams e
		JOIN classes c ON c.id = e.class_id WHERE e.id=$1`, examID).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil // exam without class: caller falls back to default band
	}
	if err != nil {
		return "", err
	}
	return level.String, nil
}

func (s *SQLStore) QuestionsForExam(ctx context.Context, examID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,exam_id,position,qtype,prompt,
		options_json,correct_answer,marks
		FROM questions WHERE exam_id=$1 ORDER BY position, id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		var q Question
		var oj string
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Position, &q.Type, &q.Prompt,
			&oj, &q.CorrectAnswer, &q.Marks); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
			q.Options = nil
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateAttemptIfAbsent(ctx context.Context, a Attempt) (Attempt, bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,exam_id,student_id,status,started_at,max_score)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (exam_id,student_id) DO NOTHING`,
		a.ID, a.ExamID, a.StudentID, a.Status, a.StartedAt, a.MaxScore)
	if err != nil {
		return Attempt{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Attempt{}, false, err
	}
	out, err := s.AttemptForStudent(ctx, a.ExamID, a.StudentID)
	if err != nil {
		return Attempt{}, false, err
	}
	return out, n > 0, nil
}

func (s *SQLStore) AttemptForStudent(ctx context.Context, examID, studentID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,exam_id,student_id,status,started_at,
		submitted_at,total_score,max_score,grade_label,elapsed_sec
		FROM attempts WHERE exam_id=$1 AND student_id=$2`, examID, studentID)
	var a Attempt
	if err := row.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Status, &a.StartedAt,
		&a.SubmittedAt, &a.TotalScore, &a.MaxScore, &a.GradeLabel, &a.ElapsedSec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) UpsertAnswer(ctx context.Context, attemptID, examID, questionID, text string) error {
	// The SELECT guard rejects question ids from other exams without a
	// separate read.
	res, err := s.db.ExecContext(ctx, `INSERT INTO answers (attempt_id,question_id,answer_text,updated_at)
		SELECT $1, q.id, $2, $3 FROM questions q WHERE q.id=$4 AND q.exam_id=$5
		ON CONFLICT (attempt_id,question_id) DO UPDATE SET
			answer_text=EXCLUDED.answer_text, updated_at=EXCLUDED.updated_at`,
		attemptID, text, time.Now().Unix(), questionID, examID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *SQLStore) AnswersForAttempt(ctx context.Context, attemptID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT attempt_id,question_id,answer_text,
		is_correct,marks_awarded
		FROM answers WHERE attempt_id=$1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Answer{}
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.AttemptID, &a.QuestionID, &a.Text, &a.Correct, &a.MarksAwarded); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) GradeAnswers(ctx context.Context, attemptID string, grades []AnswerGrade) error {
	if len(grades) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, g := range grades {
		if _, err := tx.ExecContext(ctx, `UPDATE answers
			SET is_correct=$1, marks_awarded=$2
			WHERE attempt_id=$3 AND question_id=$4`,
			g.Correct, g.MarksAwarded, attemptID, g.QuestionID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) FinalizeAttempt(ctx context.Context, attemptID string, fin Finalization) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET status=$1, submitted_at=$2, total_score=$3, grade_label=$4, elapsed_sec=$5
		WHERE id=$6 AND status=$7`,
		StatusSubmitted, fin.SubmittedAt, fin.TotalScore, fin.GradeLabel, fin.ElapsedSec,
		attemptID, StatusInProgress)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) AttemptsForExam(ctx context.Context, examID string) ([]AttemptSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id,a.exam_id,a.student_id,a.status,
		a.started_at,a.submitted_at,a.total_score,a.max_score,a.grade_label,a.elapsed_sec,
		s.first_name, s.last_name, s.admission_no
		FROM attempts a JOIN students s ON s.id = a.student_id
		WHERE a.exam_id=$1
		ORDER BY a.total_score DESC NULLS LAST, a.started_at`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AttemptSummary{}
	for rows.Next() {
		var sum AttemptSummary
		var first, last string
		if err := rows.Scan(&sum.ID, &sum.ExamID, &sum.StudentID, &sum.Status,
			&sum.StartedAt, &sum.SubmittedAt, &sum.TotalScore, &sum.MaxScore,
			&sum.GradeLabel, &sum.ElapsedSec, &first, &last, &sum.AdmissionNo); err != nil {
			return nil, err
		}
		sum.StudentName = first + " " + last
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertResult(ctx context.Context, r ResultRow) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO exam_results
		(exam_id,student_id,marks_obtained,max_marks,grade,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (exam_id,student_id) DO UPDATE SET
			marks_obtained=EXCLUDED.marks_obtained, max_marks=EXCLUDED.max_marks,
			grade=EXCLUDED.grade, updated_at=EXCLUDED.updated_at`,
		r.ExamID, r.StudentID, r.MarksObtained, r.MaxMarks, r.Grade, time.Now().Unix())
	return err
}

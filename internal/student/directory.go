package student

import (
	"context"
	"database/sql"
	"errors"

	"github.com/darasahub/darasa/internal/exam"
)

type Student struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	AdmissionNo string  `json:"admission_no,omitempty"`
	ClassID     *string `json:"class_id,omitempty"`
}

// Directory resolves authenticated users to student identities. The
// attempt engine consumes it through exam.StudentResolver.
type Directory struct {
	db *sql.DB
}

func NewDirectory(db *sql.DB) *Directory { return &Directory{db: db} }

// ResolveStudent maps a user id (JWT subject) to a student id. Dev
// tokens often carry the username as subject, so both are accepted.
func (d *Directory) ResolveStudent(ctx context.Context, userID string) (string, error) {
	var id string
	err := d.db.QueryRowContext(ctx, `SELECT s.id FROM students s
		JOIN users u ON u.id = s.user_id
		WHERE u.id=$1 OR u.username=$1`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", exam.ErrNotAStudent
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// ByUserID loads the full student row for profile views.
func (d *Directory) ByUserID(ctx context.Context, userID string) (Student, error) {
	var s Student
	err := d.db.QueryRowContext(ctx, `SELECT s.id,s.user_id,s.first_name,s.last_name,
		s.admission_no,s.class_id
		FROM students s JOIN users u ON u.id = s.user_id
		WHERE u.id=$1 OR u.username=$1`, userID).
		Scan(&s.ID, &s.UserID, &s.FirstName, &s.LastName, &s.AdmissionNo, &s.ClassID)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, exam.ErrNotAStudent
	}
	if err != nil {
		return Student{}, err
	}
	return s, nil
}

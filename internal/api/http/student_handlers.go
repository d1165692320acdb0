package http

import (
	"errors"
	"net/http"

	authmw "github.com/darasahub/darasa/internal/auth/middleware"
	"github.com/darasahub/darasa/internal/exam"
	"github.com/darasahub/darasa/internal/student"
)

// GET /students/me
// The caller's own student profile; 404 for non-student principals.
func MyProfileHandler(dir *student.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := authmw.SubjectFromContext(r.Context())
		s, err := dir.ByUserID(r.Context(), sub)
		if err != nil {
			if errors.Is(err, exam.ErrNotAStudent) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

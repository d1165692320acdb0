package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/darasahub/darasa/internal/auth/middleware"
	"github.com/darasahub/darasa/internal/exam"
)

// GET /exams/{examID}/results  (teacher/admin)
// All attempts ordered by score descending, with student identity.
func ExamResultsHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		sub := authmw.SubjectFromContext(r.Context())
		list, err := eng.ResultsForExam(r.Context(), examID)
		if err != nil {
			writeEngineError(w, err, examID, sub)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /exams/{examID}/results/me  (student)
// The caller's own graded attempt; correct answers are included because
// this is a post-submission view of their own result.
func MyResultHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		sub := authmw.SubjectFromContext(r.Context())
		attempt, breakdown, err := eng.MyResult(r.Context(), examID, sub)
		if err != nil {
			writeEngineError(w, err, examID, sub)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"attempt": attempt,
			"answers": breakdown,
		})
	}
}

// POST /exams/{examID}/results/bulk  (teacher/admin)
// Offline path: manually-marked rows banded through the same grade table
// as online submission.
func EnterOfflineResultsHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		sub := authmw.SubjectFromContext(r.Context())
		var rows []struct {
			StudentID     string  `json:"student_id"`
			MarksObtained float64 `json:"marks_obtained"`
			MaxMarks      float64 `json:"max_marks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, "expected JSON array", http.StatusBadRequest)
			return
		}
		in := make([]exam.ResultRow, 0, len(rows))
		for _, row := range rows {
			if row.StudentID == "" {
				http.Error(w, "student_id required", http.StatusBadRequest)
				return
			}
			in = append(in, exam.ResultRow{
				StudentID:     row.StudentID,
				MarksObtained: row.MarksObtained,
				MaxMarks:      row.MaxMarks,
			})
		}
		out, err := eng.EnterOfflineResults(r.Context(), examID, in)
		if err != nil {
			writeEngineError(w, err, examID, sub)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entered": len(out), "results": out})
	}
}

// POST /exams/{examID}/publish  (teacher/admin)
func PublishResultsHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		sub := authmw.SubjectFromContext(r.Context())
		if err := eng.PublishResults(r.Context(), examID); err != nil {
			writeEngineError(w, err, examID, sub)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"published": true})
	}
}

package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/darasahub/darasa/internal/auth/middleware"
	"github.com/darasahub/darasa/internal/exam"
	"github.com/darasahub/darasa/internal/rbac"
)

// POST /exams  (teacher/admin)
func CreateExamHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			exam.Exam
			Questions []exam.Question `json:"questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		for _, q := range req.Questions {
			switch q.Type {
			case "multiple_choice", "true_false", "short_answer":
			default:
				http.Error(w, "unknown question type: "+q.Type, http.StatusBadRequest)
				return
			}
		}
		ex, qs, err := eng.CreateExam(r.Context(), req.Exam, req.Questions)
		if err != nil {
			writeEngineError(w, err, req.ID, authmw.SubjectFromContext(r.Context()))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"exam": ex, "questions": qs})
	}
}

// GET /exams/{examID}
// Correct answers appear only for privileged viewers.
func GetExamHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		role := rbac.RoleFromContext(r.Context())
		ex, qs, err := eng.ExamForViewer(r.Context(), examID, rbac.Privileged(role))
		if err != nil {
			writeEngineError(w, err, examID, authmw.SubjectFromContext(r.Context()))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exam": ex, "questions": qs})
	}
}

// GET /exams?class_id=...&mode=...&limit=50&offset=0
func ListExamsHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := eng.ListExams(r.Context(), exam.ListOpts{
			ClassID: strings.TrimSpace(r.URL.Query().Get("class_id")),
			Mode:    strings.TrimSpace(r.URL.Query().Get("mode")),
			Limit:   parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:  parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			writeEngineError(w, err, "", authmw.SubjectFromContext(r.Context()))
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

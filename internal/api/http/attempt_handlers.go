package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/darasahub/darasa/internal/auth/middleware"
	"github.com/darasahub/darasa/internal/exam"
)

// POST /exams/{examID}/attempt
// Idempotent: a second start returns the existing attempt (resumed=true).
func StartAttemptHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		sub := authmw.SubjectFromContext(r.Context())
		res, err := eng.StartAttempt(r.Context(), examID, sub)
		if err != nil {
			writeEngineError(w, err, examID, sub)
			return
		}
		status := http.StatusCreated
		if res.Resumed {
			status = http.StatusOK
		}
		writeJSON(w, status, res)
	}
}

// GET /exams/{examID}/attempt
// Recovery read: the attempt in any status plus saved answers.
func GetAttemptStateHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		sub := authmw.SubjectFromContext(r.Context())
		state, err := eng.ActiveAttempt(r.Context(), examID, sub)
		if err != nil {
			writeEngineError(w, err, examID, sub)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

// POST /exams/{examID}/attempt/answers  { "question_id": "...", "answer_text": "..." }
func SaveAnswerHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		sub := authmw.SubjectFromContext(r.Context())
		var req struct {
			QuestionID string `json:"question_id"`
			AnswerText string `json:"answer_text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.QuestionID) == "" {
			http.Error(w, "question_id required", http.StatusBadRequest)
			return
		}
		if err := eng.SaveAnswer(r.Context(), examID, sub, req.QuestionID, req.AnswerText); err != nil {
			writeEngineError(w, err, examID, sub)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

// POST /exams/{examID}/attempt/submit
func SubmitAttemptHandler(eng *exam.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		sub := authmw.SubjectFromContext(r.Context())
		res, err := eng.Submit(r.Context(), examID, sub)
		if err != nil {
			writeEngineError(w, err, examID, sub)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

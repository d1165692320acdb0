package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/darasahub/darasa/internal/exam"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeEngineError maps the engine's error taxonomy to HTTP statuses.
// Unknown errors are logged with context and surfaced as a generic 500.
func writeEngineError(w http.ResponseWriter, err error, examID, subject string) {
	switch {
	case errors.Is(err, exam.ErrNotAStudent),
		errors.Is(err, exam.ErrExamNotYetOpen),
		errors.Is(err, exam.ErrExamClosed):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, exam.ErrExamNotFound),
		errors.Is(err, exam.ErrQuestionNotFound),
		errors.Is(err, exam.ErrNoActiveAttempt),
		errors.Is(err, exam.ErrAttemptNotFound),
		errors.Is(err, exam.ErrNoSubmittedAttempt):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, exam.ErrAlreadySubmitted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("exam op failed exam=%s subject=%s: %v", examID, subject, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func parseInt64Default(s string, def int64) int64 {
	if s == "" {
		return def
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil && v >= 0 {
		return v
	}
	return def
}

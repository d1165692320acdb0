package exam

import "errors"

// Precondition failures are detected before any mutation; handlers map
// these to HTTP statuses.
var (
	ErrNotAStudent        = errors.New("caller is not a student")
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamNotYetOpen     = errors.New("exam has not opened yet")
	ErrExamClosed         = errors.New("exam is closed")
	ErrQuestionNotFound   = errors.New("question not found in exam")
	ErrNoActiveAttempt    = errors.New("no active attempt")
	ErrAlreadySubmitted   = errors.New("attempt already submitted")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrNoSubmittedAttempt = errors.New("no submitted attempt")
)

package quiz

import (
	"context"
	"errors"

	"github.com/mind-engage/quizgrade/internal/grading"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrPersistence wraps a failed grade write. The transaction rolled
	// back; nothing partial is visible and the caller may retry.
	ErrPersistence = errors.New("grade persistence failed")
)

type Store interface {
	PutQuiz(ctx context.Context, q Quiz) error
	// GetQuiz is student-safe: answer keys stripped.
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	// GetQuizAdmin returns the full quiz including answer keys, for grading
	// and teacher views.
	GetQuizAdmin(ctx context.Context, id string) (Quiz, error)

	CreateSubmission(ctx context.Context, quizID, userID string, answers []grading.SubmittedAnswer) (Submission, error)
	GetSubmission(ctx context.Context, id string) (Submission, error)

	// RecordGrade persists a SubmissionGrade and its per-question results
	// atomically. Re-recording the same submission overwrites; readers see
	// the old grade or the new one, never a mix.
	RecordGrade(ctx context.Context, g grading.SubmissionGrade) error
	GetGrade(ctx context.Context, submissionID string) (grading.SubmissionGrade, error)
}

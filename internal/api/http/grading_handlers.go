package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/quizgrade/internal/auth/middleware"
	"github.com/mind-engage/quizgrade/internal/grading"
	"github.com/mind-engage/quizgrade/internal/quiz"
	"github.com/mind-engage/quizgrade/internal/rbac"
)

// POST /submissions/{submissionID}/grade
// Also the regrade entry point after a question correction.
func GradeSubmissionHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		g, err := svc.GradeSubmission(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, quiz.ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case grading.IsStructural(err):
				// inconsistent question/answer pairing is a caller bug, not
				// a retryable server fault
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			case errors.Is(err, quiz.ErrPersistence):
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		_ = json.NewEncoder(w).Encode(g)
	}
}

// GET /submissions/{submissionID}/grade
// Students only see their own; reviewers see all.
func GetGradeHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		if !mayViewGrade(store, r, id) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		g, err := store.GetGrade(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(g)
	}
}

// GET /submissions/{submissionID}/score
// Legacy display form for the manual-grading views.
func GetScoreHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		if !mayViewGrade(store, r, id) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		g, err := store.GetGrade(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"score":        grading.FormatScore(g.TotalScore, g.TotalMaxScore),
			"needs_review": g.NeedsReview,
		})
	}
}

func mayViewGrade(store quiz.Store, r *http.Request, submissionID string) bool {
	role := rbac.RoleFromContext(r.Context())
	if role == "teacher" || role == "admin" {
		return true
	}
	sub, err := store.GetSubmission(r.Context(), submissionID)
	if err != nil {
		return false
	}
	return sub.UserID == authmw.SubjectFromContext(r.Context())
}

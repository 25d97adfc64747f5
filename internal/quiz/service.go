package quiz

import (
	"context"
	"fmt"
	"log"

	"github.com/mind-engage/quizgrade/internal/audit"
	"github.com/mind-engage/quizgrade/internal/grading"
)

// EventSink receives grading audit events. Satisfied by audit.EventRepo.
type EventSink interface {
	Append(ctx context.Context, typ, key, dataJSON string) error
}

// Service runs the grading workflow: load the submission and its quiz,
// resolve the quiz's policy over the system defaults, grade, record, log.
type Service struct {
	store    Store
	engine   *grading.Engine
	defaults grading.Policy
	events   EventSink // optional
}

func NewService(store Store, engine *grading.Engine, defaults grading.Policy, events EventSink) *Service {
	return &Service{store: store, engine: engine, defaults: defaults, events: events}
}

// GradeSubmission grades (or regrades) one submission and persists the
// result. Safe to call again after a question correction; the recorder
// overwrites the previous grade atomically.
func (s *Service) GradeSubmission(ctx context.Context, submissionID string) (grading.SubmissionGrade, error) {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return grading.SubmissionGrade{}, err
	}
	q, err := s.store.GetQuizAdmin(ctx, sub.QuizID)
	if err != nil {
		return grading.SubmissionGrade{}, err
	}
	regrade := sub.Status == StatusGraded

	pol := q.GradingPolicy(s.defaults)
	g, err := s.engine.GradeSubmission(sub.ID, q.Questions, sub.Answers, pol)
	if err != nil {
		return grading.SubmissionGrade{}, fmt.Errorf("grade submission %s: %w", sub.ID, err)
	}
	if err := s.store.RecordGrade(ctx, g); err != nil {
		return grading.SubmissionGrade{}, err
	}

	if s.events != nil {
		typ := audit.EventSubmissionGraded
		if regrade {
			typ = audit.EventSubmissionRegraded
		}
		data := fmt.Sprintf(`{"quiz_id":%q,"user_id":%q,"score":%q}`,
			sub.QuizID, sub.UserID, grading.FormatScore(g.TotalScore, g.TotalMaxScore))
		if err := s.events.Append(ctx, typ, sub.ID, data); err != nil {
			// grade already committed; log and continue
			log.Printf("event append failed for %s: %v", sub.ID, err)
		}
	}
	return g, nil
}

// Grade exposes the stored grade for review surfaces.
func (s *Service) Grade(ctx context.Context, submissionID string) (grading.SubmissionGrade, error) {
	return s.store.GetGrade(ctx, submissionID)
}

// ScoreString renders the stored grade in the legacy "score/maxScore" form.
func (s *Service) ScoreString(ctx context.Context, submissionID string) (string, error) {
	g, err := s.store.GetGrade(ctx, submissionID)
	if err != nil {
		return "", err
	}
	return grading.FormatScore(g.TotalScore, g.TotalMaxScore), nil
}

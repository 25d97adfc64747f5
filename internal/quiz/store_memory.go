package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/quizgrade/internal/grading"
)

// memoryStore mirrors the SQL store for tests and offline runs. RecordGrade
// replaces the whole grade under one lock, matching the SQL transaction
// boundary: readers see old or new, never a mix.
type memoryStore struct {
	mu          sync.RWMutex
	quizzes     map[string]Quiz
	submissions map[string]Submission
	grades      map[string]grading.SubmissionGrade
}

func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes:     map[string]Quiz{},
		submissions: map[string]Submission{},
		grades:      map[string]grading.SubmissionGrade{},
	}
}

func (m *memoryStore) PutQuiz(_ context.Context, q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	m.quizzes[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	q, err := m.GetQuizAdmin(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	qs := make([]grading.QuestionDefinition, len(q.Questions))
	copy(qs, q.Questions)
	for i := range qs {
		qs[i].AnswerKey = nil
	}
	q.Questions = qs
	return q, nil
}

func (m *memoryStore) GetQuizAdmin(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, fmt.Errorf("quiz %s: %w", id, ErrNotFound)
	}
	return q, nil
}

func (m *memoryStore) CreateSubmission(_ context.Context, quizID, userID string, answers []grading.SubmittedAnswer) (Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[quizID]; !ok {
		return Submission{}, fmt.Errorf("quiz %s: %w", quizID, ErrNotFound)
	}
	sub := Submission{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		Status:    StatusFinalized,
		Answers:   answers,
		CreatedAt: time.Now().Unix(),
	}
	m.submissions[sub.ID] = sub
	return sub, nil
}

func (m *memoryStore) GetSubmission(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.submissions[id]
	if !ok {
		return Submission{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return sub, nil
}

func (m *memoryStore) RecordGrade(_ context.Context, g grading.SubmissionGrade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.submissions[g.SubmissionID]
	if !ok {
		return fmt.Errorf("%w: submission %s not found", ErrPersistence, g.SubmissionID)
	}
	m.grades[g.SubmissionID] = g
	sub.Status = StatusGraded
	m.submissions[g.SubmissionID] = sub
	return nil
}

func (m *memoryStore) GetGrade(_ context.Context, submissionID string) (grading.SubmissionGrade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.grades[submissionID]
	if !ok {
		return grading.SubmissionGrade{}, fmt.Errorf("grade for %s: %w", submissionID, ErrNotFound)
	}
	return g, nil
}

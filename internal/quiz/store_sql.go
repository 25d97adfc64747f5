package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/quizgrade/internal/grading"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	pol := "{}"
	if len(q.PolicyJSON) > 0 {
		pol = string(q.PolicyJSON)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,title,questions_json,policy_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, questions_json=EXCLUDED.questions_json, policy_json=EXCLUDED.policy_json`,
		q.ID, q.Title, string(qj), pol, time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	q, err := s.GetQuizAdmin(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	// strip keys when serving to students
	for i := range q.Questions {
		q.Questions[i].AnswerKey = nil
	}
	return q, nil
}

func (s *SQLStore) GetQuizAdmin(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,questions_json,policy_json,created_at FROM quizzes WHERE id=$1`, id)
	var q Quiz
	var qjson, pjson string
	if err := row.Scan(&q.ID, &q.Title, &qjson, &pjson, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, fmt.Errorf("quiz %s: %w", id, ErrNotFound)
		}
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, err
	}
	if pjson != "" && pjson != "{}" {
		q.PolicyJSON = json.RawMessage(pjson)
	}
	return q, nil
}

func (s *SQLStore) CreateSubmission(ctx context.Context, quizID, userID string, answers []grading.SubmittedAnswer) (Submission, error) {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE id=$1`, quizID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, fmt.Errorf("quiz %s: %w", quizID, ErrNotFound)
		}
		return Submission{}, err
	}
	sub := Submission{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		Status:    StatusFinalized,
		Answers:   answers,
		CreatedAt: time.Now().Unix(),
	}
	aj, err := json.Marshal(sub.Answers)
	if err != nil {
		return Submission{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO submissions (id,quiz_id,user_id,status,answers_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		sub.ID, sub.QuizID, sub.UserID, sub.Status, string(aj), sub.CreatedAt)
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,user_id,status,answers_json,created_at FROM submissions WHERE id=$1`, id)
	var sub Submission
	var ajson string
	if err := row.Scan(&sub.ID, &sub.QuizID, &sub.UserID, &sub.Status, &ajson, &sub.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
		}
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(ajson), &sub.Answers); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// RecordGrade writes the aggregate row and every per-question result in one
// transaction. The submission_grades upsert plus delete-and-insert of
// grade_results makes re-recording the same submission an overwrite, so
// retries and regrades stay idempotent.
func (s *SQLStore) RecordGrade(ctx context.Context, g grading.SubmissionGrade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO submission_grades (submission_id,total_score,total_max_score,needs_review,graded_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (submission_id) DO UPDATE SET total_score=EXCLUDED.total_score, total_max_score=EXCLUDED.total_max_score, needs_review=EXCLUDED.needs_review, graded_at=EXCLUDED.graded_at`,
		g.SubmissionID, g.TotalScore, g.TotalMaxScore, g.NeedsReview, g.GradedAt); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM grade_results WHERE submission_id=$1`, g.SubmissionID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	for i, r := range g.Results {
		if _, err := tx.ExecContext(ctx, `INSERT INTO grade_results
			(submission_id,question_id,position,correctness,is_correct,score_awarded,max_score,ungraded,needs_review,review_reason,submitted_answer,correct_answer)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			g.SubmissionID, r.QuestionID, i, r.Correctness, r.IsCorrect, r.ScoreAwarded, r.MaxScore,
			r.Ungraded, r.NeedsReview, r.ReviewReason, rawOrEmpty(r.SubmittedAnswer), rawOrEmpty(r.CorrectAnswer)); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE submissions SET status=$1 WHERE id=$2`, StatusGraded, g.SubmissionID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (s *SQLStore) GetGrade(ctx context.Context, submissionID string) (grading.SubmissionGrade, error) {
	row := s.db.QueryRowContext(ctx, `SELECT submission_id,total_score,total_max_score,needs_review,graded_at
		FROM submission_grades WHERE submission_id=$1`, submissionID)
	var g grading.SubmissionGrade
	if err := row.Scan(&g.SubmissionID, &g.TotalScore, &g.TotalMaxScore, &g.NeedsReview, &g.GradedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grading.SubmissionGrade{}, fmt.Errorf("grade for %s: %w", submissionID, ErrNotFound)
		}
		return grading.SubmissionGrade{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT question_id,correctness,is_correct,score_awarded,max_score,ungraded,needs_review,review_reason,submitted_answer,correct_answer
		FROM grade_results WHERE submission_id=$1 ORDER BY position`, submissionID)
	if err != nil {
		return grading.SubmissionGrade{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var r grading.GradeResult
		var sub, key string
		if err := rows.Scan(&r.QuestionID, &r.Correctness, &r.IsCorrect, &r.ScoreAwarded, &r.MaxScore,
			&r.Ungraded, &r.NeedsReview, &r.ReviewReason, &sub, &key); err != nil {
			return grading.SubmissionGrade{}, err
		}
		if sub != "" {
			r.SubmittedAnswer = json.RawMessage(sub)
		}
		if key != "" {
			r.CorrectAnswer = json.RawMessage(key)
		}
		g.Results = append(g.Results, r)
	}
	if err := rows.Err(); err != nil {
		return grading.SubmissionGrade{}, err
	}
	return g, nil
}

func rawOrEmpty(r json.RawMessage) string {
	if len(r) == 0 {
		return ""
	}
	return string(r)
}

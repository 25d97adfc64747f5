package grading

import (
	"errors"
	"fmt"
	"time"
)

// Outcome is what a strategy reports for one normalized answer pair.
type Outcome struct {
	Fraction float64 // credit fraction in [0,1]
	Manual   bool    // true when the type is not auto-scorable
}

// Strategy grades one question type. NormalizeSubmitted and NormalizeKey
// canonicalize the raw payloads; Grade compares the canonical values. All
// three are pure.
type Strategy interface {
	NormalizeSubmitted(q QuestionDefinition, raw []byte, p Policy) (interface{}, error)
	NormalizeKey(q QuestionDefinition, p Policy) (interface{}, error)
	Grade(submitted, key interface{}, p Policy) Outcome
}

// Engine routes questions to the strategy registered for their type.
// The registry is fixed at construction and safe for concurrent use.
type Engine struct {
	strategies map[QuestionType]Strategy
}

func NewEngine() *Engine {
	return &Engine{
		strategies: map[QuestionType]Strategy{
			TypeTrueFalse:   trueFalseStrategy{},
			TypeFillBlank:   fillBlankStrategy{},
			TypeMCQSingle:   mcqSingleStrategy{},
			TypeMultiSelect: multiSelectStrategy{},
			TypeDropdown:    dropdownStrategy{},
			TypeEssay:       manualStrategy{},
		},
	}
}

// GradeQuestion grades one (question, answer) pair under the given policy.
//
// Malformed payloads and unrecognized types are non-fatal: they yield a
// zero-score result flagged for review, and err stays nil. The only error is
// ErrQuestionMismatch, when the answer does not reference the question it was
// paired with; that is a caller bug and grading must not guess.
func (e *Engine) GradeQuestion(q QuestionDefinition, ans SubmittedAnswer, p Policy) (GradeResult, error) {
	if ans.QuestionID != q.ID {
		return GradeResult{}, fmt.Errorf("%w: question %s, answer for %s", ErrQuestionMismatch, q.ID, ans.QuestionID)
	}

	res := GradeResult{QuestionID: q.ID, MaxScore: q.MaxScore}
	if res.MaxScore <= 0 {
		res.MaxScore = 1
	}

	s, ok := e.strategies[q.Type]
	if !ok {
		return flag(res, reasonUnsupportedType), nil
	}

	key, err := s.NormalizeKey(q, p)
	if err != nil {
		return flag(res, reasonMalformedKey), nil
	}
	res.CorrectAnswer = canonicalJSON(key)

	// Unanswered is not malformed: plain zero, no review flag. Manual types
	// still land in the review queue.
	if len(ans.Payload) == 0 {
		if _, manual := s.(manualStrategy); manual {
			res.Ungraded = true
			return flag(res, reasonManualGrading), nil
		}
		return res, nil
	}

	sub, err := s.NormalizeSubmitted(q, ans.Payload, p)
	if err != nil {
		return flag(res, reasonMalformedAnswer), nil
	}
	res.SubmittedAnswer = canonicalJSON(sub)

	out := s.Grade(sub, key, p)
	if out.Manual {
		res.Ungraded = true
		return flag(res, reasonManualGrading), nil
	}

	res.Correctness = out.Fraction
	res.IsCorrect = out.Fraction == 1
	res.ScoreAwarded = roundHalfUp(res.MaxScore*out.Fraction, p.Precision)
	return res, nil
}

// GradeSubmission grades every question of a submission in question order.
// Questions without an answer score zero (unanswered, not flagged). An
// answer that references no question in the batch aborts with
// ErrQuestionMismatch: the caller handed over an inconsistent pairing.
func (e *Engine) GradeSubmission(submissionID string, questions []QuestionDefinition, answers []SubmittedAnswer, p Policy) (SubmissionGrade, error) {
	byQuestion := make(map[string]SubmittedAnswer, len(answers))
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			return SubmissionGrade{}, fmt.Errorf("%w: no question %s in submission %s", ErrQuestionMismatch, a.QuestionID, submissionID)
		}
		byQuestion[a.QuestionID] = a
	}

	results := make([]GradeResult, 0, len(questions))
	for _, q := range questions {
		ans, ok := byQuestion[q.ID]
		if !ok {
			ans = SubmittedAnswer{QuestionID: q.ID}
		}
		r, err := e.GradeQuestion(q, ans, p)
		if err != nil {
			return SubmissionGrade{}, err
		}
		results = append(results, r)
	}
	return Aggregate(submissionID, results), nil
}

func flag(res GradeResult, reason string) GradeResult {
	res.Correctness = 0
	res.IsCorrect = false
	res.ScoreAwarded = 0
	res.NeedsReview = true
	res.ReviewReason = reason
	return res
}

// Aggregate combines per-question results into the submission total.
// Ungraded results (essay and friends) count toward neither sum; flagged
// results keep their max in the denominator with a zero in the numerator.
func Aggregate(submissionID string, results []GradeResult) SubmissionGrade {
	g := SubmissionGrade{
		SubmissionID: submissionID,
		Results:      results,
		GradedAt:     time.Now().Unix(),
	}
	for _, r := range results {
		if r.NeedsReview {
			g.NeedsReview = true
		}
		if r.Ungraded {
			continue
		}
		g.TotalScore += r.ScoreAwarded
		g.TotalMaxScore += r.MaxScore
	}
	return g
}

// IsStructural reports whether err must abort the submission instead of
// degrading to a flagged result.
func IsStructural(err error) bool {
	return errors.Is(err, ErrQuestionMismatch)
}

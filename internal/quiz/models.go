package quiz

import (
	"encoding/json"

	"github.com/mind-engage/quizgrade/internal/grading"
)

type Quiz struct {
	ID        string                       `json:"id"`
	Title     string                       `json:"title"`
	Questions []grading.QuestionDefinition `json:"questions"`

	// PolicyJSON overrides the system grading defaults per quiz. Empty means
	// defaults apply unchanged.
	PolicyJSON json.RawMessage `json:"policy,omitempty"`
	CreatedAt  int64           `json:"created_at,omitempty"`
}

// Submission is one learner's finalized answer set. Answers are immutable
// once created; a new attempt supersedes, never edits.
type Submission struct {
	ID        string                    `json:"id"`
	QuizID    string                    `json:"quiz_id"`
	UserID    string                    `json:"user_id"`
	Status    string                    `json:"status"` // finalized|graded
	Answers   []grading.SubmittedAnswer `json:"answers"`
	CreatedAt int64                     `json:"created_at,omitempty"`
}

const (
	StatusFinalized = "finalized"
	StatusGraded    = "graded"
)

// GradingPolicy resolves the effective policy for this quiz: the system
// defaults overlaid with whatever fields the quiz's policy JSON sets.
func (q Quiz) GradingPolicy(defaults grading.Policy) grading.Policy {
	if len(q.PolicyJSON) == 0 {
		return defaults
	}
	var raw struct {
		PartialCredit *bool `json:"partial_credit_enabled"`
		CaseSensitive *bool `json:"case_sensitive_text_match"`
		Precision     *int  `json:"rounding_precision"`
	}
	if err := json.Unmarshal(q.PolicyJSON, &raw); err != nil {
		return defaults
	}
	p := defaults
	if raw.PartialCredit != nil {
		p.PartialCredit = *raw.PartialCredit
	}
	if raw.CaseSensitive != nil {
		p.CaseSensitive = *raw.CaseSensitive
	}
	if raw.Precision != nil && *raw.Precision >= 0 {
		p.Precision = *raw.Precision
	}
	return p
}

package grading

import "encoding/json"

// QuestionType is a closed set; the engine registers exactly one strategy per
// type and flags anything else for manual review.
type QuestionType string

const (
	TypeTrueFalse   QuestionType = "true_false"
	TypeFillBlank   QuestionType = "fill_blank"
	TypeMCQSingle   QuestionType = "mcq_single"
	TypeMultiSelect QuestionType = "multi_select"
	TypeDropdown    QuestionType = "dropdown"
	TypeEssay       QuestionType = "essay"
)

// QuestionDefinition is the stored form of a question at grading time.
// Data and AnswerKey are type-specific JSON payloads; their shape must match
// the declared Type.
type QuestionDefinition struct {
	ID        string          `json:"id"`
	Type      QuestionType    `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	AnswerKey json.RawMessage `json:"answer_key,omitempty"`
	MaxScore  float64         `json:"max_score"` // defaults to 1 when <= 0
}

// SubmittedAnswer is one learner response, finalized and immutable.
type SubmittedAnswer struct {
	QuestionID string          `json:"question_id"`
	Payload    json.RawMessage `json:"payload"`
}

// Policy is the grading configuration for one grading call. It is passed
// explicitly so grading stays a pure function of its inputs.
type Policy struct {
	PartialCredit bool `json:"partial_credit_enabled"`
	CaseSensitive bool `json:"case_sensitive_text_match"`
	Precision     int  `json:"rounding_precision"`
}

// DefaultPolicy mirrors the system defaults: partial credit on,
// case-insensitive text match, two decimal places.
func DefaultPolicy() Policy {
	return Policy{PartialCredit: true, CaseSensitive: false, Precision: 2}
}

// GradeResult is the per-question outcome. SubmittedAnswer and CorrectAnswer
// hold the normalized payloads as graded, so later edits to the question
// cannot change what this grade meant.
type GradeResult struct {
	QuestionID   string  `json:"question_id"`
	Correctness  float64 `json:"correctness"` // fraction in [0,1]
	IsCorrect    bool    `json:"is_correct"`
	ScoreAwarded float64 `json:"score_awarded"`
	MaxScore     float64 `json:"max_score"`

	// Ungraded marks question types excluded from auto-scoring (essay);
	// such results count toward neither total.
	Ungraded     bool   `json:"ungraded,omitempty"`
	NeedsReview  bool   `json:"needs_review,omitempty"`
	ReviewReason string `json:"review_reason,omitempty"`

	SubmittedAnswer json.RawMessage `json:"submitted_answer,omitempty"`
	CorrectAnswer   json.RawMessage `json:"correct_answer,omitempty"`
}

// SubmissionGrade is the aggregate persisted per submission.
type SubmissionGrade struct {
	SubmissionID  string        `json:"submission_id"`
	Results       []GradeResult `json:"results"`
	TotalScore    float64       `json:"total_score"`
	TotalMaxScore float64       `json:"total_max_score"`
	NeedsReview   bool          `json:"needs_review,omitempty"`
	GradedAt      int64         `json:"graded_at"`
}

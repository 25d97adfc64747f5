package grading

import "errors"

var (
	// ErrMalformedAnswer: submitted payload does not match the declared
	// question type's schema. Non-fatal per submission; the question grades
	// to a flagged zero.
	ErrMalformedAnswer = errors.New("malformed answer payload")

	// ErrMalformedAnswerKey: the stored correct-answer payload does not
	// match the declared type. Data-integrity problem; handled like a
	// malformed answer so one corrupt question cannot block the submission.
	ErrMalformedAnswerKey = errors.New("malformed answer key")

	// ErrUnsupportedQuestionType: no strategy registered for the type.
	ErrUnsupportedQuestionType = errors.New("unsupported question type")

	// ErrQuestionMismatch: an answer was paired with a question it does not
	// reference. Integration error at the caller boundary; grading aborts.
	ErrQuestionMismatch = errors.New("answer references a different question")
)

// review reasons recorded on flagged results
const (
	reasonMalformedAnswer = "malformed_answer"
	reasonMalformedKey    = "malformed_answer_key"
	reasonUnsupportedType = "unsupported_question_type"
	reasonManualGrading   = "manual_grading_required"
)

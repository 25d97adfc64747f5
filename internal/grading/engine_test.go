package grading

import (
	"encoding/json"
	"errors"
	"testing"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func question(id string, qt QuestionType, key string, max float64) QuestionDefinition {
	return QuestionDefinition{ID: id, Type: qt, AnswerKey: raw(key), MaxScore: max}
}

func answer(id, payload string) SubmittedAnswer {
	return SubmittedAnswer{QuestionID: id, Payload: raw(payload)}
}

func TestGradeQuestion_TrueFalse(t *testing.T) {
	e := NewEngine()
	p := DefaultPolicy()

	tests := []struct {
		name    string
		key     string
		payload string
		correct bool
	}{
		{"bool match", `true`, `true`, true},
		{"bool mismatch", `true`, `false`, false},
		{"string true coerced", `true`, `"true"`, true},
		{"string false coerced", `false`, `"False"`, true},
		{"string key coerced", `"true"`, `true`, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.GradeQuestion(question("q1", TypeTrueFalse, tc.key, 2), answer("q1", tc.payload), p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.IsCorrect != tc.correct {
				t.Fatalf("is_correct=%v, want %v", res.IsCorrect, tc.correct)
			}
			want := 0.0
			if tc.correct {
				want = 2
			}
			if res.ScoreAwarded != want {
				t.Fatalf("score=%v, want %v", res.ScoreAwarded, want)
			}
		})
	}
}

func TestGradeQuestion_FillBlank(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name    string
		policy  Policy
		key     string
		payload string
		correct bool
	}{
		{"exact", DefaultPolicy(), `"Paris"`, `"Paris"`, true},
		{"case folded", DefaultPolicy(), `"Paris"`, `"pARIS"`, true},
		{"surrounding whitespace", DefaultPolicy(), `"Paris"`, `"  Paris  "`, true},
		{"inner runs collapse", DefaultPolicy(), `"New York"`, `"new   york"`, true},
		{"wrong word", DefaultPolicy(), `"Paris"`, `"Lyon"`, false},
		{"any of several", DefaultPolicy(), `["colour","color"]`, `"Color"`, true},
		{"case sensitive miss", Policy{CaseSensitive: true, Precision: 2}, `"Paris"`, `"paris"`, false},
		{"case sensitive hit", Policy{CaseSensitive: true, Precision: 2}, `"Paris"`, `" Paris "`, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.GradeQuestion(question("q1", TypeFillBlank, tc.key, 1), answer("q1", tc.payload), tc.policy)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.IsCorrect != tc.correct {
				t.Fatalf("is_correct=%v, want %v", res.IsCorrect, tc.correct)
			}
		})
	}
}

func TestGradeQuestion_MCQSingle(t *testing.T) {
	e := NewEngine()
	p := DefaultPolicy()

	res, err := e.GradeQuestion(question("q1", TypeMCQSingle, `"b"`, 1), answer("q1", `"b"`), p)
	if err != nil || !res.IsCorrect {
		t.Fatalf("want correct, got %+v err=%v", res, err)
	}
	res, err = e.GradeQuestion(question("q1", TypeMCQSingle, `"b"`, 1), answer("q1", `"c"`), p)
	if err != nil || res.IsCorrect || res.ScoreAwarded != 0 {
		t.Fatalf("want zero incorrect, got %+v err=%v", res, err)
	}
}

func TestGradeQuestion_Dropdown(t *testing.T) {
	e := NewEngine()
	key := `["A","B","C"]`

	t.Run("partial credit two of three", func(t *testing.T) {
		res, err := e.GradeQuestion(question("q1", TypeDropdown, key, 3), answer("q1", `["A","X","C"]`), DefaultPolicy())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.IsCorrect {
			t.Fatal("two of three must not be fully correct")
		}
		if res.ScoreAwarded != 2 {
			t.Fatalf("score=%v, want 2", res.ScoreAwarded)
		}
	})

	t.Run("partial credit disabled is binary", func(t *testing.T) {
		p := Policy{PartialCredit: false, Precision: 2}
		res, err := e.GradeQuestion(question("q1", TypeDropdown, key, 3), answer("q1", `["A","X","C"]`), p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.ScoreAwarded != 0 {
			t.Fatalf("score=%v, want 0", res.ScoreAwarded)
		}
	})

	t.Run("all slots match", func(t *testing.T) {
		p := Policy{PartialCredit: false, Precision: 2}
		res, err := e.GradeQuestion(question("q1", TypeDropdown, key, 3), answer("q1", `["A","B","C"]`), p)
		if err != nil || !res.IsCorrect || res.ScoreAwarded != 3 {
			t.Fatalf("want full credit, got %+v err=%v", res, err)
		}
	})

	t.Run("tagged slot form", func(t *testing.T) {
		payload := `[{"slot":2,"option":"C"},{"slot":0,"option":"A"},{"slot":1,"option":"B"}]`
		res, err := e.GradeQuestion(question("q1", TypeDropdown, key, 3), answer("q1", payload), DefaultPolicy())
		if err != nil || !res.IsCorrect {
			t.Fatalf("want full credit, got %+v err=%v", res, err)
		}
	})

	t.Run("duplicate slot index malformed", func(t *testing.T) {
		payload := `[{"slot":0,"option":"A"},{"slot":0,"option":"B"},{"slot":2,"option":"C"}]`
		res, err := e.GradeQuestion(question("q1", TypeDropdown, key, 3), answer("q1", payload), DefaultPolicy())
		if err != nil {
			t.Fatalf("malformed must not error: %v", err)
		}
		if !res.NeedsReview || res.ReviewReason != "malformed_answer" || res.ScoreAwarded != 0 {
			t.Fatalf("want flagged zero, got %+v", res)
		}
	})

	t.Run("slot count from question data", func(t *testing.T) {
		q := question("q1", TypeDropdown, key, 3)
		q.Data = raw(`{"slots":[{"options":["A","X"]},{"options":["B","X"]},{"options":["C","X"]}]}`)
		res, err := e.GradeQuestion(q, answer("q1", `["A","B","C"]`), DefaultPolicy())
		if err != nil || !res.IsCorrect {
			t.Fatalf("want full credit, got %+v err=%v", res, err)
		}
	})

	t.Run("data and key slot counts disagree", func(t *testing.T) {
		q := question("q1", TypeDropdown, `["A","B"]`, 3)
		q.Data = raw(`{"slots":[{"options":["A"]},{"options":["B"]},{"options":["C"]}]}`)
		res, err := e.GradeQuestion(q, answer("q1", `["A","B","C"]`), DefaultPolicy())
		if err != nil {
			t.Fatalf("integrity problem must not error: %v", err)
		}
		if !res.NeedsReview || res.ReviewReason != "malformed_answer_key" {
			t.Fatalf("want key flag, got %+v", res)
		}
	})

	t.Run("wrong slot count malformed", func(t *testing.T) {
		res, err := e.GradeQuestion(question("q1", TypeDropdown, key, 3), answer("q1", `["A","B"]`), DefaultPolicy())
		if err != nil || !res.NeedsReview {
			t.Fatalf("want flagged, got %+v err=%v", res, err)
		}
	})
}

func TestGradeQuestion_MultiSelect(t *testing.T) {
	e := NewEngine()
	key := `["A","B"]`

	tests := []struct {
		name    string
		policy  Policy
		payload string
		want    float64 // correctness fraction
	}{
		{"exact set", DefaultPolicy(), `["B","A"]`, 1},
		{"one extra costs one share", DefaultPolicy(), `["A","B","C"]`, 0.5},
		{"one missing", DefaultPolicy(), `["A"]`, 0.5},
		{"floors at zero", DefaultPolicy(), `["C","D"]`, 0},
		{"duplicates collapse", DefaultPolicy(), `["A","A","B"]`, 1},
		{"binary mode extra", Policy{PartialCredit: false, Precision: 2}, `["A","B","C"]`, 0},
		{"binary mode exact", Policy{PartialCredit: false, Precision: 2}, `["B","A"]`, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.GradeQuestion(question("q1", TypeMultiSelect, key, 2), answer("q1", tc.payload), tc.policy)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Correctness != tc.want {
				t.Fatalf("correctness=%v, want %v", res.Correctness, tc.want)
			}
			if res.ScoreAwarded != roundHalfUp(2*tc.want, tc.policy.Precision) {
				t.Fatalf("score=%v not rounded product", res.ScoreAwarded)
			}
		})
	}
}

func TestGradeQuestion_Flagging(t *testing.T) {
	e := NewEngine()
	p := DefaultPolicy()

	t.Run("malformed bool payload", func(t *testing.T) {
		res, err := e.GradeQuestion(question("q1", TypeTrueFalse, `true`, 1), answer("q1", `"yes"`), p)
		if err != nil {
			t.Fatalf("malformed must not error: %v", err)
		}
		if !res.NeedsReview || res.ReviewReason != "malformed_answer" || res.ScoreAwarded != 0 || res.IsCorrect {
			t.Fatalf("want flagged zero, got %+v", res)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		res, err := e.GradeQuestion(question("q1", "matching", `{}`, 1), answer("q1", `{}`), p)
		if err != nil {
			t.Fatalf("unsupported must not error: %v", err)
		}
		if !res.NeedsReview || res.ReviewReason != "unsupported_question_type" {
			t.Fatalf("want unsupported flag, got %+v", res)
		}
	})

	t.Run("malformed answer key", func(t *testing.T) {
		res, err := e.GradeQuestion(question("q1", TypeFillBlank, `[]`, 1), answer("q1", `"x"`), p)
		if err != nil {
			t.Fatalf("bad key must not error: %v", err)
		}
		if !res.NeedsReview || res.ReviewReason != "malformed_answer_key" {
			t.Fatalf("want key flag, got %+v", res)
		}
	})

	t.Run("essay is ungraded and flagged", func(t *testing.T) {
		res, err := e.GradeQuestion(question("q1", TypeEssay, ``, 5), answer("q1", `"my essay"`), p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Ungraded || !res.NeedsReview || res.ReviewReason != "manual_grading_required" {
			t.Fatalf("want ungraded manual flag, got %+v", res)
		}
	})

	t.Run("unanswered is zero without flag", func(t *testing.T) {
		res, err := e.GradeQuestion(question("q1", TypeTrueFalse, `true`, 1), SubmittedAnswer{QuestionID: "q1"}, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.NeedsReview || res.ScoreAwarded != 0 || res.IsCorrect {
			t.Fatalf("want plain zero, got %+v", res)
		}
	})

	t.Run("mismatched question id rejects", func(t *testing.T) {
		_, err := e.GradeQuestion(question("q1", TypeTrueFalse, `true`, 1), answer("q2", `true`), p)
		if !errors.Is(err, ErrQuestionMismatch) {
			t.Fatalf("want ErrQuestionMismatch, got %v", err)
		}
	})
}

func TestGradeQuestion_SnapshotsNormalizedAnswers(t *testing.T) {
	e := NewEngine()
	res, err := e.GradeQuestion(question("q1", TypeFillBlank, `"  The   Answer "`, 1), answer("q1", `" the answer "`), DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.SubmittedAnswer) != `"the answer"` {
		t.Fatalf("submitted snapshot %s", res.SubmittedAnswer)
	}
	if string(res.CorrectAnswer) != `["the answer"]` {
		t.Fatalf("correct snapshot %s", res.CorrectAnswer)
	}
	if !res.IsCorrect {
		t.Fatal("normalized pair must match")
	}
}

func TestGradeSubmission_BadQuestionNeverBlocksRest(t *testing.T) {
	e := NewEngine()
	questions := []QuestionDefinition{
		question("q1", TypeTrueFalse, `true`, 1),
		question("q2", TypeTrueFalse, `true`, 1),
		question("q3", "telepathy", `true`, 1),
	}
	answers := []SubmittedAnswer{
		answer("q1", `true`),
		answer("q2", `42`), // malformed
		answer("q3", `true`),
	}
	g, err := e.GradeSubmission("s1", questions, answers, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Results) != 3 {
		t.Fatalf("want 3 results, got %d", len(g.Results))
	}
	if g.TotalScore != 1 || g.TotalMaxScore != 3 {
		t.Fatalf("totals %v/%v, want 1/3", g.TotalScore, g.TotalMaxScore)
	}
	if !g.NeedsReview {
		t.Fatal("flagged questions must mark the submission for review")
	}
}

func TestGradeSubmission_UnknownAnswerAborts(t *testing.T) {
	e := NewEngine()
	questions := []QuestionDefinition{question("q1", TypeTrueFalse, `true`, 1)}
	answers := []SubmittedAnswer{answer("q9", `true`)}
	_, err := e.GradeSubmission("s1", questions, answers, DefaultPolicy())
	if !errors.Is(err, ErrQuestionMismatch) {
		t.Fatalf("want ErrQuestionMismatch, got %v", err)
	}
	if !IsStructural(err) {
		t.Fatal("mismatch must be structural")
	}
}

func TestGradeSubmission_EssayExcludedFromTotals(t *testing.T) {
	e := NewEngine()
	questions := []QuestionDefinition{
		question("q1", TypeTrueFalse, `true`, 1),
		question("q2", TypeEssay, ``, 5),
	}
	answers := []SubmittedAnswer{
		answer("q1", `true`),
		answer("q2", `"a thoughtful essay"`),
	}
	g, err := e.GradeSubmission("s1", questions, answers, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TotalScore != 1 || g.TotalMaxScore != 1 {
		t.Fatalf("totals %v/%v, want essay excluded (1/1)", g.TotalScore, g.TotalMaxScore)
	}
	if !g.NeedsReview {
		t.Fatal("essay must flag the submission for manual review")
	}
}

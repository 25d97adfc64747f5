package grading

import (
	"encoding/json"
	"fmt"
	"strings"
)

// --- true/false ---

type trueFalseStrategy struct{}

func (trueFalseStrategy) NormalizeSubmitted(_ QuestionDefinition, raw []byte, _ Policy) (interface{}, error) {
	return parseBool(raw)
}

func (trueFalseStrategy) NormalizeKey(q QuestionDefinition, _ Policy) (interface{}, error) {
	b, err := parseBool(q.AnswerKey)
	if err != nil {
		return nil, ErrMalformedAnswerKey
	}
	return b, nil
}

func (trueFalseStrategy) Grade(submitted, key interface{}, _ Policy) Outcome {
	if submitted.(bool) == key.(bool) {
		return Outcome{Fraction: 1}
	}
	return Outcome{}
}

// --- fill in the blank ---

// The key is one accepted string or an array of accepted strings; matching
// any one of them earns full credit. Binary.
type fillBlankStrategy struct{}

func (fillBlankStrategy) NormalizeSubmitted(_ QuestionDefinition, raw []byte, p Policy) (interface{}, error) {
	s, err := parseString(raw)
	if err != nil {
		return nil, err
	}
	return normalizeText(s, p.CaseSensitive), nil
}

func (fillBlankStrategy) NormalizeKey(q QuestionDefinition, p Policy) (interface{}, error) {
	list, err := parseStringList(q.AnswerKey)
	if err != nil || len(list) == 0 {
		return nil, ErrMalformedAnswerKey
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = normalizeText(s, p.CaseSensitive)
	}
	return out, nil
}

func (fillBlankStrategy) Grade(submitted, key interface{}, _ Policy) Outcome {
	sub := submitted.(string)
	for _, accepted := range key.([]string) {
		if sub == accepted {
			return Outcome{Fraction: 1}
		}
	}
	return Outcome{}
}

// --- multiple choice, single answer ---

type mcqSingleStrategy struct{}

func (mcqSingleStrategy) NormalizeSubmitted(_ QuestionDefinition, raw []byte, _ Policy) (interface{}, error) {
	s, err := parseString(raw)
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(s), nil
}

func (mcqSingleStrategy) NormalizeKey(q QuestionDefinition, _ Policy) (interface{}, error) {
	s, err := parseString(q.AnswerKey)
	if err != nil || strings.TrimSpace(s) == "" {
		return nil, ErrMalformedAnswerKey
	}
	return strings.TrimSpace(s), nil
}

func (mcqSingleStrategy) Grade(submitted, key interface{}, _ Policy) Outcome {
	if submitted.(string) == key.(string) {
		return Outcome{Fraction: 1}
	}
	return Outcome{}
}

// --- multiple select (checkbox) ---

type multiSelectStrategy struct{}

func (multiSelectStrategy) NormalizeSubmitted(_ QuestionDefinition, raw []byte, _ Policy) (interface{}, error) {
	return parseOptionSet(raw)
}

func (multiSelectStrategy) NormalizeKey(q QuestionDefinition, _ Policy) (interface{}, error) {
	set, err := parseOptionSet(q.AnswerKey)
	if err != nil || len(set) == 0 {
		return nil, ErrMalformedAnswerKey
	}
	return set, nil
}

// Grade requires set equality when partial credit is off. With partial
// credit, true positives earn and false positives cost one correct-option
// share each, floored at zero:
//
//	fraction = clamp(|correct ∩ sel| − |sel \ correct|, 0, |correct|) / |correct|
func (multiSelectStrategy) Grade(submitted, key interface{}, p Policy) Outcome {
	sel := toSet(submitted.([]string))
	correct := toSet(key.([]string))

	hits, misses := 0, 0
	for v := range sel {
		if _, ok := correct[v]; ok {
			hits++
		} else {
			misses++
		}
	}
	if hits == len(correct) && misses == 0 {
		return Outcome{Fraction: 1}
	}
	if !p.PartialCredit {
		return Outcome{}
	}
	raw := hits - misses
	if raw < 0 {
		raw = 0
	}
	return Outcome{Fraction: float64(raw) / float64(len(correct))}
}

// --- dropdown (ordered multi-slot select) ---

type dropdownStrategy struct{}

func (dropdownStrategy) NormalizeSubmitted(q QuestionDefinition, raw []byte, _ Policy) (interface{}, error) {
	return parseSlotSelections(raw, slotCount(q))
}

func (dropdownStrategy) NormalizeKey(q QuestionDefinition, _ Policy) (interface{}, error) {
	slots, err := parseSlotSelections(q.AnswerKey, slotCount(q))
	if err != nil {
		return nil, ErrMalformedAnswerKey
	}
	return slots, nil
}

// Grade scores slot-by-slot. Partial credit is matched/total; without it all
// slots must match.
func (dropdownStrategy) Grade(submitted, key interface{}, p Policy) Outcome {
	sub := submitted.([]string)
	correct := key.([]string)
	if len(sub) != len(correct) {
		return Outcome{}
	}
	matched := 0
	for i := range correct {
		if sub[i] == correct[i] {
			matched++
		}
	}
	if matched == len(correct) {
		return Outcome{Fraction: 1}
	}
	if !p.PartialCredit {
		return Outcome{}
	}
	return Outcome{Fraction: float64(matched) / float64(len(correct))}
}

// slotCount reads the slot count from the question data
// ({"slots":[{"options":[...]},...]}), falling back to the answer key's
// length. -1 means undeterminable; parseSlotSelections then infers it.
func slotCount(q QuestionDefinition) int {
	if len(q.Data) > 0 {
		var data struct {
			Slots []struct {
				Options []string `json:"options"`
			} `json:"slots"`
		}
		if err := json.Unmarshal(q.Data, &data); err == nil && len(data.Slots) > 0 {
			return len(data.Slots)
		}
	}
	if slots, err := parseSlotSelections(q.AnswerKey, -1); err == nil {
		return len(slots)
	}
	return -1
}

// --- essay (manual only) ---

type manualStrategy struct{}

func (manualStrategy) NormalizeSubmitted(_ QuestionDefinition, raw []byte, _ Policy) (interface{}, error) {
	s, err := parseString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: want text", ErrMalformedAnswer)
	}
	return strings.TrimSpace(s), nil
}

func (manualStrategy) NormalizeKey(QuestionDefinition, Policy) (interface{}, error) {
	return nil, nil
}

func (manualStrategy) Grade(interface{}, interface{}, Policy) Outcome {
	return Outcome{Manual: true}
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

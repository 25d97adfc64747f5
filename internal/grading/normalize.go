package grading

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// normalizeText trims, collapses internal whitespace runs to a single space,
// and case-folds unless the policy asks for case-sensitive matching.
// Idempotent: normalizing an already-normalized string is a no-op.
func normalizeText(s string, caseSensitive bool) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && len(out) > 0 {
			out = append(out, ' ')
		}
		space = false
		if caseSensitive {
			out = append(out, r)
		} else {
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}

// parseBool accepts a JSON bool or the strings "true"/"false" (any case).
func parseBool(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: want boolean", ErrMalformedAnswer)
}

func parseString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: want string", ErrMalformedAnswer)
	}
	return s, nil
}

// parseStringList accepts a single string or an array of strings.
func parseStringList(raw json.RawMessage) ([]string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	return nil, fmt.Errorf("%w: want string or string array", ErrMalformedAnswer)
}

// parseOptionSet canonicalizes an array of option identifiers into a sorted,
// de-duplicated set. Order is irrelevant, duplicates collapse.
func parseOptionSet(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: want array of option ids", ErrMalformedAnswer)
	}
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

type slotSelection struct {
	Slot   *int   `json:"slot"`
	Option string `json:"option"`
}

// parseSlotSelections canonicalizes a dropdown payload into one option per
// slot, ordered by slot index. Two shapes are accepted: the canonical plain
// array ["A","B","C"] (position = slot) and the tagged form
// [{"slot":0,"option":"A"}, ...]. n is the required slot count; n < 0 means
// infer it from the payload (used for answer keys).
func parseSlotSelections(raw json.RawMessage, n int) ([]string, error) {
	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		if n >= 0 && len(plain) != n {
			return nil, fmt.Errorf("%w: want %d slot selections, got %d", ErrMalformedAnswer, n, len(plain))
		}
		if len(plain) == 0 {
			return nil, fmt.Errorf("%w: empty slot selections", ErrMalformedAnswer)
		}
		out := make([]string, len(plain))
		for i, v := range plain {
			out[i] = strings.TrimSpace(v)
		}
		return out, nil
	}

	var tagged []slotSelection
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, fmt.Errorf("%w: want slot selection array", ErrMalformedAnswer)
	}
	if n < 0 {
		n = len(tagged)
	}
	if len(tagged) != n || n == 0 {
		return nil, fmt.Errorf("%w: want %d slot selections, got %d", ErrMalformedAnswer, n, len(tagged))
	}
	out := make([]string, n)
	filled := make([]bool, n)
	for _, sel := range tagged {
		if sel.Slot == nil {
			return nil, fmt.Errorf("%w: selection missing slot index", ErrMalformedAnswer)
		}
		i := *sel.Slot
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: slot index %d out of range", ErrMalformedAnswer, i)
		}
		if filled[i] {
			return nil, fmt.Errorf("%w: duplicate slot index %d", ErrMalformedAnswer, i)
		}
		filled[i] = true
		out[i] = strings.TrimSpace(sel.Option)
	}
	return out, nil
}

// canonicalJSON marshals a normalized value back to its canonical JSON form,
// the shape persisted with the grade.
func canonicalJSON(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return json.RawMessage(buf)
}

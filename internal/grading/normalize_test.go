package grading

import (
	"reflect"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name          string
		in            string
		caseSensitive bool
		want          string
	}{
		{"trim", "  hello  ", false, "hello"},
		{"collapse runs", "a \t b\n\nc", false, "a b c"},
		{"fold case", "HeLLo", false, "hello"},
		{"keep case", "HeLLo", true, "HeLLo"},
		{"empty", "   ", false, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeText(tc.in, tc.caseSensitive)
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
			// normalizing a normalized string is a no-op
			if again := normalizeText(got, tc.caseSensitive); again != got {
				t.Fatalf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, ok := range []string{`true`, `false`, `"true"`, `"FALSE"`, `" true "`} {
		if _, err := parseBool(raw(ok)); err != nil {
			t.Fatalf("parseBool(%s): %v", ok, err)
		}
	}
	for _, bad := range []string{`1`, `"yes"`, `null`, `[true]`, `""`} {
		if _, err := parseBool(raw(bad)); err == nil {
			t.Fatalf("parseBool(%s): want error", bad)
		}
	}
}

func TestParseOptionSet(t *testing.T) {
	got, err := parseOptionSet(raw(`["b","a","b"," c ",""]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// canonical form survives another pass unchanged
	again, err := parseOptionSet(canonicalJSON(got))
	if err != nil || !reflect.DeepEqual(again, got) {
		t.Fatalf("not idempotent: %v -> %v (%v)", got, again, err)
	}

	if _, err := parseOptionSet(raw(`"a"`)); err == nil {
		t.Fatal("bare string must be malformed")
	}
}

func TestParseSlotSelections(t *testing.T) {
	t.Run("plain array", func(t *testing.T) {
		got, err := parseSlotSelections(raw(`["A"," B ","C"]`), 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
			t.Fatalf("got %v", got)
		}
		// canonical round trip
		again, err := parseSlotSelections(canonicalJSON(got), 3)
		if err != nil || !reflect.DeepEqual(again, got) {
			t.Fatalf("not idempotent: %v -> %v (%v)", got, again, err)
		}
	})

	t.Run("tagged order independent", func(t *testing.T) {
		got, err := parseSlotSelections(raw(`[{"slot":1,"option":"B"},{"slot":0,"option":"A"}]`), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, []string{"A", "B"}) {
			t.Fatalf("got %v", got)
		}
	})

	tests := []struct {
		name    string
		payload string
		n       int
	}{
		{"too few", `["A"]`, 2},
		{"too many", `["A","B","C"]`, 2},
		{"out of range index", `[{"slot":5,"option":"A"},{"slot":0,"option":"B"}]`, 2},
		{"negative index", `[{"slot":-1,"option":"A"},{"slot":0,"option":"B"}]`, 2},
		{"duplicate index", `[{"slot":0,"option":"A"},{"slot":0,"option":"B"}]`, 2},
		{"missing slot tag", `[{"option":"A"},{"slot":1,"option":"B"}]`, 2},
		{"not an array", `{"slot":0}`, 2},
		{"empty", `[]`, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseSlotSelections(raw(tc.payload), tc.n); err == nil {
				t.Fatal("want malformed error")
			}
		})
	}
}

func TestParseStringList(t *testing.T) {
	one, err := parseStringList(raw(`"only"`))
	if err != nil || !reflect.DeepEqual(one, []string{"only"}) {
		t.Fatalf("got %v (%v)", one, err)
	}
	many, err := parseStringList(raw(`["a","b"]`))
	if err != nil || len(many) != 2 {
		t.Fatalf("got %v (%v)", many, err)
	}
	if _, err := parseStringList(raw(`123`)); err == nil {
		t.Fatal("want malformed error")
	}
}

package crypto

import "testing"

func TestCanonicalKeyOrdering(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2}
	b := map[string]any{"a": 2, "b": 1}

	encA, err := Canonical(a)
	if err != nil {
		t.Fatalf("Canonical(a) failed: %v", err)
	}
	encB, err := Canonical(b)
	if err != nil {
		t.Fatalf("Canonical(b) failed: %v", err)
	}
	if string(encA) != string(encB) {
		t.Errorf("expected identical encodings regardless of map construction order, got %q vs %q", encA, encB)
	}
	if string(encA) != `{"a":2,"b":1}` {
		t.Errorf("unexpected encoding: %q", encA)
	}
}

func TestCanonicalNestedKeyOrdering(t *testing.T) {
	v := map[string]any{
		"outer": map[string]any{"z": 1, "y": 2},
	}
	enc, err := Canonical(v)
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}
	if string(enc) != `{"outer":{"y":2,"z":1}}` {
		t.Errorf("unexpected nested encoding: %q", enc)
	}
}

func TestCanonicalRejectsFloats(t *testing.T) {
	if _, err := Canonical(map[string]any{"x": 1.5}); err == nil {
		t.Error("expected error for float value")
	}
	if _, err := Canonical(1.5); err == nil {
		t.Error("expected error for bare float value")
	}
}

func TestCanonicalNoWhitespace(t *testing.T) {
	enc, err := Canonical([]any{1, "two", true, nil})
	if err != nil {
		t.Fatalf("Canonical failed: %v", err)
	}
	if string(enc) != `[1,"two",true,null]` {
		t.Errorf("unexpected encoding: %q", enc)
	}
}

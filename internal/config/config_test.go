package config

import "testing"

func TestParsePartials(t *testing.T) {
	levels := parsePartials("0.1:0.25,0.05:0.5,0.2:0.25")
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	// ascending by level
	want := []string{"0.05", "0.1", "0.2"}
	for i, lvl := range levels {
		if got := lvl.Level.String(); got != want[i] {
			t.Fatalf("level %d: got %s, want %s", i, got, want[i])
		}
	}
}

func TestParsePartials_SkipsMalformedEntries(t *testing.T) {
	levels := parsePartials("0.1:0.25,garbage,0.2:1.5,0:0.5,0.3:0.5")
	if len(levels) != 2 {
		t.Fatalf("expected 2 valid levels, got %d", len(levels))
	}
}

func TestParsePartials_Empty(t *testing.T) {
	if levels := parsePartials(""); levels != nil {
		t.Fatalf("expected nil for empty spec, got %v", levels)
	}
}

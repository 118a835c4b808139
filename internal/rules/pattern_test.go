package rules

import (
	"testing"

	"boekhouden/internal/models"
)

func strPtr(s string) *string { return &s }

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		name    string
		kind    models.PatternType
		pattern string
		value   *string
		want    bool
	}{
		{"exact equal ignoring case", models.PatternTypeExact, "Proximus NV", strPtr("PROXIMUS nv"), true},
		{"exact rejects substring", models.PatternTypeExact, "Proximus", strPtr("Proximus NV"), false},
		{"prefix", models.PatternTypePrefix, "kbc", strPtr("KBC Verzekeringen"), true},
		{"prefix not at start", models.PatternTypePrefix, "verzekeringen", strPtr("KBC Verzekeringen"), false},
		{"contains", models.PatternTypeContains, "PROXIMUS", strPtr("proximus nv"), true},
		{"contains missing", models.PatternTypeContains, "telenet", strPtr("proximus nv"), false},
		{"regex searches", models.PatternTypeRegex, `inkomsten\s*verdeling`, strPtr("Inkomstenverdeling 2025 Maatschap"), true},
		{"regex anchored", models.PatternTypeRegex, `^maatschap`, strPtr("Inkomstenverdeling Maatschap"), false},
		{"nil never matches", models.PatternTypeContains, "x", nil, false},
		{"nil never matches regex", models.PatternTypeRegex, ".*", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompilePattern(tt.kind, tt.pattern)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := p.Match(tt.value); got != tt.want {
				t.Errorf("Match(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestCompilePattern(t *testing.T) {
	t.Run("invalid regex", func(t *testing.T) {
		if _, err := CompilePattern(models.PatternTypeRegex, "(unclosed"); err == nil {
			t.Fatal("expected error for invalid regex")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := CompilePattern("fuzzy", "abc"); err == nil {
			t.Fatal("expected error for unknown pattern type")
		}
	})

	t.Run("empty pattern", func(t *testing.T) {
		if _, err := CompilePattern(models.PatternTypeContains, "  "); err == nil {
			t.Fatal("expected error for empty pattern")
		}
	})

	t.Run("zero value matches nothing", func(t *testing.T) {
		var p Pattern
		if p.Match(strPtr("anything")) {
			t.Error("expected zero pattern not to match")
		}
	})
}

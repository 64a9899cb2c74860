package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	tests := map[string]struct {
		input  string
		limit  int
		expect string
	}{
		"disabled":          {input: "trait evaluation", limit: 0, expect: ""},
		"fits":              {input: "Go", limit: 10, expect: "Go"},
		"cut with ellipsis": {input: "trait evaluation", limit: 5, expect: "trait..."},
		"trims first":       {input: "  answer  ", limit: 6, expect: "answer"},
		"counts runes":      {input: "Разработчик Go", limit: 11, expect: "Разработчик..."},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

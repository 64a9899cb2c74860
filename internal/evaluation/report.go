package evaluation

import "strings"

// Section is one evaluated trait in the final report.
type Section struct {
	TraitName       string  `json:"trait" yaml:"trait"`
	Kind            Kind    `json:"kind" yaml:"kind"`
	Content         string  `json:"content" yaml:"content"`
	Value           Value   `json:"value" yaml:"value"`
	NormalizedScore float64 `json:"normalized_score" yaml:"normalized_score"`
	Required        bool    `json:"required" yaml:"required"`
	Degraded        bool    `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// SkippedTrait names a trait that has no section and why.
type SkippedTrait struct {
	TraitName string `json:"trait" yaml:"trait"`
	Reason    string `json:"reason" yaml:"reason"`
}

// Citation is a source reference passed through to the report untouched.
type Citation struct {
	Number int    `json:"number" yaml:"number"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	URL    string `json:"url" yaml:"url"`
}

// Report is the terminal artifact of a run. The engine keeps no reference to it.
type Report struct {
	Sections     []Section      `json:"sections" yaml:"sections"`
	Skipped      []SkippedTrait `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	RequiredMet  int            `json:"required_met" yaml:"required_met"`
	OptionalMet  int            `json:"optional_met" yaml:"optional_met"`
	OverallScore float64        `json:"overall_score" yaml:"overall_score"`
	Fit          *FitVerdict    `json:"fit,omitempty" yaml:"fit,omitempty"`
	Summary      string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Citations    []Citation     `json:"citations" yaml:"citations"`
}

// JoinedContent concatenates section texts in report order.
func (r *Report) JoinedContent() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		if text := strings.TrimSpace(s.Content); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// RequiredTotal counts the required traits that made it into the report.
func (r *Report) RequiredTotal() int {
	n := 0
	for _, s := range r.Sections {
		if s.Required {
			n++
		}
	}
	return n
}

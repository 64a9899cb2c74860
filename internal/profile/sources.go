package profile

import (
	"fmt"
	"strings"

	"github.com/spigell/candidate-evaluator/internal/evaluation"
)

// Source is one document about the candidate. Sources are numbered from 1
// in the order given, and evaluations cite them by that number.
type Source struct {
	URL     string `mapstructure:"url" yaml:"url" json:"url"`
	Title   string `mapstructure:"title" yaml:"title,omitempty" json:"title,omitempty"`
	Content string `mapstructure:"content" yaml:"content" json:"content"`
}

// SourcesText renders sources as a numbered list for prompts.
func SourcesText(sources []Source) string {
	var b strings.Builder
	for i, s := range sources {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] ", i+1)
		if title := strings.TrimSpace(s.Title); title != "" {
			fmt.Fprintf(&b, "%s ", title)
		}
		fmt.Fprintf(&b, "(%s)\n%s", strings.TrimSpace(s.URL), strings.TrimSpace(s.Content))
	}
	return b.String()
}

// Citations lists the sources in the same numbering SourcesText uses.
func Citations(sources []Source) []evaluation.Citation {
	citations := make([]evaluation.Citation, 0, len(sources))
	for i, s := range sources {
		citations = append(citations, evaluation.Citation{
			Number: i + 1,
			Title:  strings.TrimSpace(s.Title),
			URL:    strings.TrimSpace(s.URL),
		})
	}
	return citations
}

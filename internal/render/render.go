// Package render formats evaluation reports for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spigell/candidate-evaluator/internal/evaluation"
	"github.com/spigell/candidate-evaluator/internal/history"
)

const width = 80

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	metStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4CAF50"))
	missStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(width)
	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			Width(width - 4)
)

// Report renders r as a header box followed by one box per section.
func Report(title string, r *evaluation.Report) string {
	if r == nil {
		return ""
	}

	blocks := []string{header(title, r)}

	for _, s := range r.Sections {
		blocks = append(blocks, section(s))
	}

	if len(r.Skipped) > 0 {
		lines := make([]string, 0, len(r.Skipped))
		for _, s := range r.Skipped {
			lines = append(lines, fmt.Sprintf("%s: %s", s.TraitName, s.Reason))
		}
		blocks = append(blocks, box("Not evaluated", strings.Join(lines, "\n")))
	}

	if r.Summary != "" {
		blocks = append(blocks, box("Recommendation", r.Summary))
	}

	if len(r.Citations) > 0 {
		lines := make([]string, 0, len(r.Citations))
		for _, c := range r.Citations {
			line := fmt.Sprintf("[%d] %s", c.Number, c.URL)
			if c.Title != "" {
				line = fmt.Sprintf("[%d] %s %s", c.Number, c.Title, c.URL)
			}
			lines = append(lines, line)
		}
		blocks = append(blocks, box("Sources", strings.Join(lines, "\n")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func header(title string, r *evaluation.Report) string {
	if title == "" {
		title = "Evaluation"
	}

	lines := []string{
		titleStyle.Render(title),
		fmt.Sprintf("%s %.1f / %d", labelStyle.Render("Overall score:"), r.OverallScore, evaluation.MaxScore),
		fmt.Sprintf("%s %d of %d", labelStyle.Render("Required met:"), r.RequiredMet, r.RequiredTotal()),
		fmt.Sprintf("%s %d", labelStyle.Render("Optional met:"), r.OptionalMet),
	}
	if r.Fit != nil {
		lines = append(lines, fmt.Sprintf("%s %d / %d", labelStyle.Render("Fit:"), r.Fit.Score, evaluation.MaxFitScore))
		if r.Fit.Rationale != "" {
			lines = append(lines, bodyStyle.Render(r.Fit.Rationale))
		}
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}

func section(s evaluation.Section) string {
	mark := missStyle.Render("✗")
	if !s.Degraded && s.Value.Truthy() {
		mark = metStyle.Render("✓")
	}

	need := "optional"
	if s.Required {
		need = "required"
	}

	head := fmt.Sprintf("%s %s %s", mark, titleStyle.Render(s.TraitName),
		labelStyle.Render(fmt.Sprintf("(%s, %s) %s → %.1f", need, s.Kind, s.Value, s.NormalizedScore)))
	if s.Degraded {
		head += " " + missStyle.Render("answer not understood")
	}

	return boxStyle.Render(head + "\n" + bodyStyle.Render(s.Content))
}

func box(title, body string) string {
	return boxStyle.Render(titleStyle.Render(title) + "\n" + bodyStyle.Render(body))
}

var headerCell = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Padding(0, 1)

var cell = lipgloss.NewStyle().Padding(0, 1)

// Records renders saved evaluations as a table, in the given order.
func Records(records []history.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.CandidateName,
			r.JobTitle,
			fmt.Sprintf("%.1f", r.OverallScore),
			fmt.Sprintf("%d", r.FitScore),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		Headers("ID", "DATE", "CANDIDATE", "JOB", "SCORE", "FIT").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cell
		}).
		String()
}

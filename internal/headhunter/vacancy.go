package headhunter

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	blockTags = regexp.MustCompile(`(?i)<\s*(br|/p|/li|/ul|/ol|/h[1-6])\s*/?>`)
	listItem  = regexp.MustCompile(`(?i)<\s*li[^>]*>`)
	anyTag    = regexp.MustCompile(`<[^>]*>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	Experience struct {
		Name string `json:"name,omitempty"`
	} `json:"experience,omitempty"`
	Schedule struct {
		Name string `json:"name,omitempty"`
	} `json:"schedule,omitempty"`
	Employer struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Description  string `json:"description,omitempty"`
	KeySkills    []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
}

// GetVacancy reads a single public vacancy. No token is needed.
func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("vacancy id is required")
	}

	var v Vacancy
	if err := c.getJSON(ctx, fmt.Sprintf("%s/vacancies/%s", c.APIURL, url.PathEscape(id)), nil, &v); err != nil {
		return nil, fmt.Errorf("get vacancy %s: %w", id, err)
	}

	return &v, nil
}

// JobDescription renders the vacancy as plain text for prompts.
func (v *Vacancy) JobDescription() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s", v.Name)
	if v.Employer.Name != "" {
		fmt.Fprintf(&b, " at %s", v.Employer.Name)
	}
	b.WriteString("\n")

	for _, line := range [][2]string{
		{"Location", v.Area.Name},
		{"Experience", v.Experience.Name},
		{"Schedule", v.Schedule.Name},
	} {
		if line[1] != "" {
			fmt.Fprintf(&b, "%s: %s\n", line[0], line[1])
		}
	}

	if skills := v.skillNames(); len(skills) > 0 {
		fmt.Fprintf(&b, "Key skills: %s\n", strings.Join(skills, ", "))
	}

	if text := plainText(v.Description); text != "" {
		b.WriteString("\n")
		b.WriteString(text)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

func (v *Vacancy) skillNames() []string {
	names := make([]string, 0, len(v.KeySkills))
	for _, skill := range v.KeySkills {
		if name := strings.TrimSpace(skill.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func plainText(markup string) string {
	text := blockTags.ReplaceAllString(markup, "\n")
	text = listItem.ReplaceAllString(text, "- ")
	text = anyTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Package profile holds the candidate side of an evaluation: the parsed
// profile, the sources gathered about the candidate and the citations
// derived from them.
package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/candidate-evaluator/internal/evaluation"
)

const separator = "\n---------\n"

type Profile struct {
	FullName         string       `mapstructure:"full_name" yaml:"full_name" json:"full_name"`
	Occupation       string       `mapstructure:"occupation" yaml:"occupation,omitempty" json:"occupation,omitempty"`
	Headline         string       `mapstructure:"headline" yaml:"headline,omitempty" json:"headline,omitempty"`
	Summary          string       `mapstructure:"summary" yaml:"summary,omitempty" json:"summary,omitempty"`
	City             string       `mapstructure:"city" yaml:"city,omitempty" json:"city,omitempty"`
	Country          string       `mapstructure:"country" yaml:"country,omitempty" json:"country,omitempty"`
	PublicIdentifier string       `mapstructure:"public_identifier" yaml:"public_identifier,omitempty" json:"public_identifier,omitempty"`
	Experiences      []Experience `mapstructure:"experiences" yaml:"experiences,omitempty" json:"experiences,omitempty"`
	Education        []Education  `mapstructure:"education" yaml:"education,omitempty" json:"education,omitempty"`
	CareerTags       []string     `mapstructure:"career_tags" yaml:"career_tags,omitempty" json:"career_tags,omitempty"`
}

type Experience struct {
	Title       string     `mapstructure:"title" yaml:"title" json:"title"`
	Company     string     `mapstructure:"company" yaml:"company" json:"company"`
	Description string     `mapstructure:"description" yaml:"description,omitempty" json:"description,omitempty"`
	Location    string     `mapstructure:"location" yaml:"location,omitempty" json:"location,omitempty"`
	StartsAt    *YearMonth `mapstructure:"starts_at" yaml:"starts_at,omitempty" json:"starts_at,omitempty"`
	EndsAt      *YearMonth `mapstructure:"ends_at" yaml:"ends_at,omitempty" json:"ends_at,omitempty"`

	CompanyData *CompanyData `mapstructure:"company_data" yaml:"company_data,omitempty" json:"company_data,omitempty"`
	Role        *RoleSummary `mapstructure:"summarized_job_description" yaml:"summarized_job_description,omitempty" json:"summarized_job_description,omitempty"`
}

// CompanyData describes the employer behind an experience.
type CompanyData struct {
	Industry     string    `mapstructure:"industry" yaml:"industry,omitempty" json:"industry,omitempty"`
	Size         []int     `mapstructure:"company_size" yaml:"company_size,omitempty" json:"company_size,omitempty"`
	Description  string    `mapstructure:"description" yaml:"description,omitempty" json:"description,omitempty"`
	Specialties  []string  `mapstructure:"specialities" yaml:"specialities,omitempty" json:"specialities,omitempty"`
	Type         string    `mapstructure:"company_type" yaml:"company_type,omitempty" json:"company_type,omitempty"`
	Headquarters *Location `mapstructure:"hq" yaml:"hq,omitempty" json:"hq,omitempty"`
}

type Location struct {
	City    string `mapstructure:"city" yaml:"city,omitempty" json:"city,omitempty"`
	State   string `mapstructure:"state" yaml:"state,omitempty" json:"state,omitempty"`
	Country string `mapstructure:"country" yaml:"country,omitempty" json:"country,omitempty"`
}

// RoleSummary is a condensed job description for an experience.
type RoleSummary struct {
	Summary      string   `mapstructure:"role_summary" yaml:"role_summary,omitempty" json:"role_summary,omitempty"`
	Skills       []string `mapstructure:"skills" yaml:"skills,omitempty" json:"skills,omitempty"`
	Requirements []string `mapstructure:"requirements" yaml:"requirements,omitempty" json:"requirements,omitempty"`
}

type Education struct {
	School       string     `mapstructure:"school" yaml:"school" json:"school"`
	DegreeName   string     `mapstructure:"degree_name" yaml:"degree_name,omitempty" json:"degree_name,omitempty"`
	FieldOfStudy string     `mapstructure:"field_of_study" yaml:"field_of_study,omitempty" json:"field_of_study,omitempty"`
	StartsAt     *YearMonth `mapstructure:"starts_at" yaml:"starts_at,omitempty" json:"starts_at,omitempty"`
	EndsAt       *YearMonth `mapstructure:"ends_at" yaml:"ends_at,omitempty" json:"ends_at,omitempty"`
}

type YearMonth struct {
	Year  int `mapstructure:"year" yaml:"year" json:"year"`
	Month int `mapstructure:"month" yaml:"month,omitempty" json:"month,omitempty"`
}

// Decode builds a Profile from loosely typed data such as a parsed file.
func Decode(raw map[string]any) (*Profile, error) {
	if raw == nil {
		return nil, errors.New("profile data is empty")
	}

	var p Profile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("create profile decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	p.FullName = strings.TrimSpace(p.FullName)
	if p.FullName == "" {
		return nil, errors.New("profile full_name is required")
	}

	return &p, nil
}

// ContextString renders the profile as the plain-text block models read.
func (p *Profile) ContextString() string {
	return p.contextAt(time.Now())
}

func (p *Profile) contextAt(now time.Time) string {
	if p == nil {
		return ""
	}

	var b strings.Builder

	writeCareer(&b, p.Metrics(now), p.CareerTags)

	if p.Occupation != "" {
		fmt.Fprintf(&b, "Current Occupation: %s\n%s", p.Occupation, separator)
	}
	if p.Headline != "" {
		fmt.Fprintf(&b, "Headline: %s\n%s", p.Headline, separator)
	}
	if p.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n%s", p.Summary, separator)
	}
	if p.City != "" && p.Country != "" {
		fmt.Fprintf(&b, "Location of this candidate: %s, %s\n%s", p.City, p.Country, separator)
	}

	for _, exp := range p.Experiences {
		fmt.Fprintf(&b, "Experience: %s at %s\n", exp.Title, exp.Company)
		if exp.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", exp.Description)
		}
		writePeriod(&b, exp.StartsAt, exp.EndsAt)
		writeCompany(&b, exp.CompanyData)
		writeRole(&b, exp.Role)
		b.WriteString(separator)
	}

	for _, edu := range p.Education {
		if edu.School == "" || edu.DegreeName == "" || edu.FieldOfStudy == "" {
			continue
		}
		fmt.Fprintf(&b, "Education: %s; %s in %s\n", edu.School, edu.DegreeName, edu.FieldOfStudy)
		writePeriod(&b, edu.StartsAt, edu.EndsAt)
		b.WriteString(separator)
	}

	return b.String()
}

func writePeriod(b *strings.Builder, start, end *YearMonth) {
	if start != nil && start.Year > 0 {
		fmt.Fprintf(b, "Start Year: %d\n", start.Year)
		if start.Month > 0 {
			fmt.Fprintf(b, "Start Month: %d\n", start.Month)
		}
	}
	if end != nil && end.Year > 0 {
		fmt.Fprintf(b, "End Year: %d\n", end.Year)
		if end.Month > 0 {
			fmt.Fprintf(b, "End Month: %d\n", end.Month)
		}
	}
}

// writeCareer emits nothing when no experience is dated.
func writeCareer(b *strings.Builder, m CareerMetrics, tags []string) {
	if m.TotalMonths == 0 {
		return
	}
	b.WriteString("Career Analysis:\n")
	fmt.Fprintf(b, "Total Experience: %.1f years\n", m.TotalYears())
	fmt.Fprintf(b, "Average Tenure: %.1f years\n", m.AverageTenureYears())
	fmt.Fprintf(b, "Current Tenure: %.1f years\n", m.CurrentTenureYears())
	if len(m.TechStacks) > 0 {
		fmt.Fprintf(b, "Technical Specialties: %s\n", strings.Join(m.TechStacks, ", "))
	}
	if len(tags) > 0 {
		fmt.Fprintf(b, "Career Tags: %s\n", strings.Join(tags, ", "))
	}
	b.WriteString(separator)
}

func writeCompany(b *strings.Builder, c *CompanyData) {
	if c == nil {
		return
	}
	b.WriteString("\nCompany Information:\n")
	if c.Industry != "" {
		fmt.Fprintf(b, "Industry: %s\n", c.Industry)
	}
	if size := c.sizeString(); size != "" {
		fmt.Fprintf(b, "Company Size: %s\n", size)
	}
	if c.Description != "" {
		fmt.Fprintf(b, "Company Description: %s\n", c.Description)
	}
	if len(c.Specialties) > 0 {
		fmt.Fprintf(b, "Company Specialties: %s\n", strings.Join(c.Specialties, ", "))
	}
	if c.Type != "" {
		fmt.Fprintf(b, "Company Type: %s\n", c.Type)
	}
	if hq := c.Headquarters; hq != nil {
		var parts []string
		for _, s := range []string{hq.City, hq.State, hq.Country} {
			if s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			fmt.Fprintf(b, "Headquarters: %s\n", strings.Join(parts, ", "))
		}
	}
}

// sizeString renders an employee range. An open upper bound decodes as zero.
func (c *CompanyData) sizeString() string {
	switch {
	case len(c.Size) >= 2 && c.Size[1] > 0:
		return fmt.Sprintf("%d-%d employees", c.Size[0], c.Size[1])
	case len(c.Size) >= 1 && c.Size[0] > 0:
		return fmt.Sprintf("%d+ employees", c.Size[0])
	}
	return ""
}

func writeRole(b *strings.Builder, r *RoleSummary) {
	if r == nil {
		return
	}
	if r.Summary != "" {
		fmt.Fprintf(b, "Role Summary: %s\n", r.Summary)
	}
	if len(r.Skills) > 0 {
		fmt.Fprintf(b, "Skills: %s\n", strings.Join(r.Skills, ", "))
	}
	if len(r.Requirements) > 0 {
		fmt.Fprintf(b, "Requirements: %s\n", strings.Join(r.Requirements, ", "))
	}
}

// Candidate converts the profile into what an evaluation run consumes.
func (p *Profile) Candidate() evaluation.Candidate {
	if p == nil {
		return evaluation.Candidate{}
	}
	return evaluation.Candidate{FullName: p.FullName, Context: p.ContextString()}
}

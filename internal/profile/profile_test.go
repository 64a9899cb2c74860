package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const candidateYAML = `
profile:
  full_name: Alex Doe
  occupation: Staff Engineer at Acme
  headline: Distributed systems
  city: Berlin
  country: Germany
  experiences:
    - title: Staff Engineer
      company: Acme
      description: Runs the storage team.
      starts_at: {year: 2019, month: 3}
    - title: Engineer
      company: Initech
      starts_at: {year: 2015}
      ends_at: {year: 2019, month: 2}
  education:
    - school: TU Berlin
      degree_name: MSc
      field_of_study: Computer Science
      ends_at: {year: 2015}
    - school: Skipped School
sources:
  - url: https://example.com/alex
    title: Personal site
    content: Alex writes about Go.
  - url: https://github.com/alex
    content: 40 public repositories.
`

func TestParseCandidate(t *testing.T) {
	candidate, err := Parse([]byte(candidateYAML))
	require.NoError(t, err)

	p := candidate.Profile
	assert.Equal(t, "Alex Doe", p.FullName)
	require.Len(t, p.Experiences, 2)
	assert.Equal(t, &YearMonth{Year: 2019, Month: 3}, p.Experiences[0].StartsAt)
	assert.Len(t, candidate.Sources, 2)

	context := p.ContextString()
	for _, want := range []string{
		"Current Occupation: Staff Engineer at Acme\n\n---------\n",
		"Location of this candidate: Berlin, Germany\n",
		"Experience: Staff Engineer at Acme\nDescription: Runs the storage team.\nStart Year: 2019\nStart Month: 3\n\n---------\n",
		"Experience: Engineer at Initech\nStart Year: 2015\nEnd Year: 2019\nEnd Month: 2\n",
		"Education: TU Berlin; MSc in Computer Science\nEnd Year: 2015\n",
	} {
		assert.Contains(t, context, want)
	}
	assert.NotContains(t, context, "Skipped School")
	assert.Less(t, strings.Index(context, "Acme"), strings.Index(context, "Initech"))

	c := p.Candidate()
	assert.Equal(t, "Alex Doe", c.FullName)
	assert.Equal(t, context, c.Context)
}

func TestParseCandidateJSON(t *testing.T) {
	candidate, err := Parse([]byte(`{"profile": {"full_name": "Sam Roe", "summary": "Go developer"}, "sources": []}`))
	require.NoError(t, err)
	assert.Equal(t, "Summary: Go developer\n\n---------\n", candidate.Profile.ContextString())
}

const enrichedYAML = `
profile:
  full_name: Alex Doe
  career_tags: [Founder, Big Tech]
  experiences:
    - title: Staff Engineer
      company: Acme
      starts_at: {year: 2019, month: 3}
      company_data:
        industry: Software
        company_size: [10001, null]
        description: Cloud storage.
        specialities: [Storage, Backup]
        company_type: Public Company
        hq: {city: Berlin, country: DE}
      summarized_job_description:
        role_summary: Leads the storage platform.
        skills: [Go, Kubernetes]
        requirements: [8+ years backend]
    - title: Engineer
      company: Initech
      starts_at: {year: 2015}
      ends_at: {year: 2019, month: 2}
      company_data:
        company_size: [51, 200]
`

func TestParseCandidateEnriched(t *testing.T) {
	candidate, err := Parse([]byte(enrichedYAML))
	require.NoError(t, err)

	p := candidate.Profile
	require.Len(t, p.Experiences, 2)
	acme := p.Experiences[0]
	require.NotNil(t, acme.CompanyData)
	assert.Equal(t, []int{10001, 0}, acme.CompanyData.Size)
	assert.Equal(t, &Location{City: "Berlin", Country: "DE"}, acme.CompanyData.Headquarters)
	require.NotNil(t, acme.Role)
	assert.Equal(t, []string{"Go", "Kubernetes"}, acme.Role.Skills)
	assert.Nil(t, p.Experiences[1].Role)

	context := p.contextAt(time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC))
	for _, want := range []string{
		"Career Analysis:\nTotal Experience: 9.5 years\n",
		"Current Tenure: 5.3 years\n",
		"Technical Specialties: Backend, Infrastructure\n",
		"Career Tags: Founder, Big Tech\n\n---------\n",
		"Start Month: 3\n\nCompany Information:\nIndustry: Software\nCompany Size: 10001+ employees\n" +
			"Company Description: Cloud storage.\nCompany Specialties: Storage, Backup\n" +
			"Company Type: Public Company\nHeadquarters: Berlin, DE\n" +
			"Role Summary: Leads the storage platform.\nSkills: Go, Kubernetes\nRequirements: 8+ years backend\n\n---------\n",
		"End Month: 2\n\nCompany Information:\nCompany Size: 51-200 employees\n\n---------\n",
	} {
		assert.Contains(t, context, want)
	}
	assert.True(t, strings.HasPrefix(context, "Career Analysis:"))
}

func TestMetrics(t *testing.T) {
	now := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	p := &Profile{Experiences: []Experience{
		{Title: "Staff Engineer", StartsAt: &YearMonth{Year: 2019, Month: 3}},
		{Title: "Engineer", StartsAt: &YearMonth{Year: 2015}, EndsAt: &YearMonth{Year: 2019, Month: 2}},
		{Title: "Contractor", StartsAt: &YearMonth{Year: 2018, Month: 1}, EndsAt: &YearMonth{Year: 2018, Month: 12}},
		{Title: "Undated"},
	}}

	m := p.Metrics(now)
	assert.Equal(t, 114, m.TotalMonths)
	assert.Equal(t, 64, m.CurrentTenureMonths)
	assert.InDelta(t, 42.0, m.AverageTenureMonths, 1e-9)
	assert.InDelta(t, 9.5, m.TotalYears(), 1e-9)
	assert.Empty(t, m.TechStacks)

	assert.Equal(t, CareerMetrics{}, (&Profile{Experiences: []Experience{{Title: "Undated"}}}).Metrics(now))
	assert.Equal(t, CareerMetrics{}, (*Profile)(nil).Metrics(now))
}

func TestDetectTechStacks(t *testing.T) {
	cases := map[string][]string{
		"React and Django developer":              {"Backend", "Frontend", "Full Stack"},
		"Built data pipelines with Airflow.":      {"Data Engineering"},
		"Maintained the LLM evaluation harness":   {"ML/AI"},
		"Fullstack engineer":                      {"Full Stack"},
		"Runs AWS, Terraform and CI/CD; mentors.": {"Infrastructure"},
		"Maintained a retail chain":               nil,
	}
	for text, want := range cases {
		assert.Equal(t, want, detectTechStacks(text), text)
	}
}

func TestParseCandidateErrors(t *testing.T) {
	cases := map[string]string{
		"no profile":     "sources: []",
		"no name":        "profile: {headline: x}",
		"source no url":  "profile: {full_name: A}\nsources: [{content: x}]",
		"malformed yaml": "profile: [",
	}
	for name, input := range cases {
		_, err := Parse([]byte(input))
		assert.Error(t, err, name)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(candidateYAML), 0o600))

	candidate, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Alex Doe", candidate.Profile.FullName)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSourcesAndCitations(t *testing.T) {
	sources := []Source{
		{URL: "https://example.com/a", Title: "Blog", Content: "First."},
		{URL: " https://example.com/b ", Content: "Second."},
	}

	assert.Equal(t,
		"[1] Blog (https://example.com/a)\nFirst.\n\n[2] (https://example.com/b)\nSecond.",
		SourcesText(sources),
	)

	citations := Citations(sources)
	require.Len(t, citations, 2)
	assert.Equal(t, 1, citations[0].Number)
	assert.Equal(t, "Blog", citations[0].Title)
	assert.Equal(t, 2, citations[1].Number)
	assert.Equal(t, "https://example.com/b", citations[1].URL)

	assert.Empty(t, SourcesText(nil))
	assert.NotNil(t, Citations(nil))
}

func TestFromHeadHunterResume(t *testing.T) {
	raw := map[string]any{
		"first_name":    "Ivan",
		"last_name":     "Petrov",
		"title":         "Go developer",
		"skills":        "I build backends.",
		"skill_set":     []any{"Go", "PostgreSQL"},
		"alternate_url": "https://hh.ru/resume/abc",
		"area":          map[string]any{"id": "1", "name": "Moscow"},
		"experience": []any{
			map[string]any{
				"company":     "Yandex",
				"position":    "Backend engineer",
				"description": "Search infrastructure.",
				"start":       "2020-04-01",
				"end":         nil,
			},
		},
		"education": map[string]any{
			"level": map[string]any{"name": "Higher"},
			"primary": []any{
				map[string]any{"name": "MSU", "organization": "CMC", "result": "Applied math", "year": float64(2018)},
			},
		},
	}

	p, source, err := FromHeadHunterResume(raw)
	require.NoError(t, err)

	assert.Equal(t, "Ivan Petrov", p.FullName)
	assert.Equal(t, "Go developer", p.Occupation)
	assert.Equal(t, "Go, PostgreSQL", p.Headline)
	assert.Equal(t, "Moscow", p.City)
	require.Len(t, p.Experiences, 1)
	assert.Equal(t, &YearMonth{Year: 2020, Month: 4}, p.Experiences[0].StartsAt)
	assert.Nil(t, p.Experiences[0].EndsAt)
	require.Len(t, p.Education, 1)
	assert.Equal(t, Education{School: "MSU", DegreeName: "Higher", FieldOfStudy: "Applied math", EndsAt: &YearMonth{Year: 2018}}, p.Education[0])

	assert.Equal(t, "https://hh.ru/resume/abc", source.URL)
	assert.Contains(t, source.Content, "Experience: Backend engineer at Yandex")
}

package profile

import (
	"strings"
	"time"
)

// CareerMetrics summarizes the dated part of a work history.
type CareerMetrics struct {
	TotalMonths         int
	AverageTenureMonths float64
	CurrentTenureMonths int
	TechStacks          []string
}

func (m CareerMetrics) TotalYears() float64         { return float64(m.TotalMonths) / 12 }
func (m CareerMetrics) AverageTenureYears() float64 { return m.AverageTenureMonths / 12 }
func (m CareerMetrics) CurrentTenureYears() float64 { return float64(m.CurrentTenureMonths) / 12 }

type techStack struct {
	name     string
	keywords []string
}

// Order is the order stacks are reported in.
var techStacks = []techStack{
	{"Backend", []string{
		"backend", "back-end", "python", "django", "flask", "fastapi", "go", "golang", "java", "spring",
		"kotlin", "rust", "ruby", "rails", "php", "node.js", "nodejs", "postgresql", "postgres", "mysql",
		"mongodb", "redis", "kafka", "rabbitmq", "grpc", "api", "apis", "microservices",
	}},
	{"Frontend", []string{
		"frontend", "front-end", "javascript", "typescript", "react", "vue", "angular", "svelte",
		"next.js", "html", "css", "redux", "webpack",
	}},
	{"ML/AI", []string{
		"machine learning", "deep learning", "ml", "ai", "tensorflow", "pytorch", "nlp", "llm", "llms",
		"computer vision", "scikit-learn",
	}},
	{"Infrastructure", []string{
		"infrastructure", "aws", "gcp", "azure", "docker", "kubernetes", "k8s", "terraform", "ansible",
		"devops", "sre", "cloud", "linux", "ci/cd",
	}},
	{"Data Engineering", []string{
		"etl", "spark", "airflow", "hadoop", "dbt", "snowflake", "bigquery", "data pipeline",
		"data pipelines", "data engineering", "data warehouse",
	}},
}

// Metrics computes career metrics with now as the end of ongoing roles.
// Experiences without a start year are left out of the tenure figures.
func (p *Profile) Metrics(now time.Time) CareerMetrics {
	var m CareerMetrics
	if p == nil {
		return m
	}

	type span struct{ from, to int }
	var spans []span
	current := monthIndex(now.Year(), int(now.Month()))
	for _, exp := range p.Experiences {
		if exp.StartsAt == nil || exp.StartsAt.Year <= 0 {
			continue
		}
		from := exp.StartsAt.index()
		to := current
		if exp.EndsAt != nil && exp.EndsAt.Year > 0 {
			to = exp.EndsAt.index()
		}
		// The start and end months both count.
		to++
		if to <= from {
			continue
		}
		spans = append(spans, span{from, to})
		if exp.EndsAt == nil || exp.EndsAt.Year <= 0 {
			m.CurrentTenureMonths = max(m.CurrentTenureMonths, to-from)
		}
	}
	if len(spans) > 0 {
		sum := 0
		for _, s := range spans {
			sum += s.to - s.from
		}
		m.AverageTenureMonths = float64(sum) / float64(len(spans))

		// Overlapping roles count once towards the total.
		months := make(map[int]struct{})
		for _, s := range spans {
			for i := s.from; i < s.to; i++ {
				months[i] = struct{}{}
			}
		}
		m.TotalMonths = len(months)
	}

	m.TechStacks = detectTechStacks(p.stackText())
	return m
}

func (p *Profile) stackText() string {
	parts := []string{p.Occupation, p.Headline, p.Summary}
	for _, exp := range p.Experiences {
		parts = append(parts, exp.Title, exp.Description)
		if exp.Role != nil {
			parts = append(parts, exp.Role.Summary)
			parts = append(parts, exp.Role.Skills...)
			parts = append(parts, exp.Role.Requirements...)
		}
	}
	return strings.Join(parts, " ")
}

func detectTechStacks(text string) []string {
	normalized := " " + strings.Join(tokens(text), " ") + " "

	var found []string
	has := make(map[string]bool)
	for _, stack := range techStacks {
		for _, kw := range stack.keywords {
			if strings.Contains(normalized, " "+kw+" ") {
				found = append(found, stack.name)
				has[stack.name] = true
				break
			}
		}
	}
	fullStack := (has["Backend"] && has["Frontend"]) ||
		strings.Contains(normalized, " full stack ") ||
		strings.Contains(normalized, " fullstack ") ||
		strings.Contains(normalized, " full-stack ")
	if fullStack {
		found = append(found, "Full Stack")
	}
	return found
}

// tokens lowercases text and splits it into words, keeping the
// punctuation that is part of technology names.
func tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r == '.', r == '/', r == '-', r == '+', r == '#':
			return false
		}
		return true
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, ".-/")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func monthIndex(year, month int) int {
	if month < 1 || month > 12 {
		month = 1
	}
	return year*12 + month - 1
}

func (ym *YearMonth) index() int {
	return monthIndex(ym.Year, ym.Month)
}

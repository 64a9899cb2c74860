package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

type hhResume struct {
	FirstName    string   `mapstructure:"first_name"`
	LastName     string   `mapstructure:"last_name"`
	Title        string   `mapstructure:"title"`
	Skills       string   `mapstructure:"skills"`
	SkillSet     []string `mapstructure:"skill_set"`
	AlternateURL string   `mapstructure:"alternate_url"`
	Area         *struct {
		Name string
	}
	Experience []struct {
		Company     string
		Position    string
		Description string
		Start       string
		End         string
		Area        *struct {
			Name string
		}
	}
	Education *struct {
		Level *struct {
			Name string
		}
		Primary []struct {
			Name         string
			Organization string
			Result       string
			Year         int
		}
	}
}

// FromHeadHunterResume maps a raw hh.ru resume into a Profile and a source
// carrying the resume text. The source has no URL when the resume has none.
func FromHeadHunterResume(raw map[string]any) (*Profile, Source, error) {
	var r hhResume
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &r,
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return strings.EqualFold(strings.ReplaceAll(mapKey, "_", ""), strings.ReplaceAll(fieldName, "_", ""))
		},
	})
	if err != nil {
		return nil, Source{}, fmt.Errorf("create resume decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, Source{}, fmt.Errorf("decode resume: %w", err)
	}

	p := &Profile{
		FullName:   strings.TrimSpace(strings.Join([]string{r.FirstName, r.LastName}, " ")),
		Occupation: strings.TrimSpace(r.Title),
		Headline:   strings.Join(r.SkillSet, ", "),
		Summary:    strings.TrimSpace(r.Skills),
	}
	if p.FullName == "" {
		p.FullName = "Anonymous candidate"
	}
	if r.Area != nil {
		p.City = r.Area.Name
	}

	for _, exp := range r.Experience {
		e := Experience{
			Title:       exp.Position,
			Company:     exp.Company,
			Description: strings.TrimSpace(exp.Description),
			StartsAt:    parseHHDate(exp.Start),
			EndsAt:      parseHHDate(exp.End),
		}
		if exp.Area != nil {
			e.Location = exp.Area.Name
		}
		p.Experiences = append(p.Experiences, e)
	}

	if r.Education != nil {
		degree := ""
		if r.Education.Level != nil {
			degree = r.Education.Level.Name
		}
		for _, edu := range r.Education.Primary {
			field := edu.Result
			if field == "" {
				field = edu.Organization
			}
			e := Education{School: edu.Name, DegreeName: degree, FieldOfStudy: field}
			if edu.Year > 0 {
				e.EndsAt = &YearMonth{Year: edu.Year}
			}
			p.Education = append(p.Education, e)
		}
	}

	source := Source{
		URL:     strings.TrimSpace(r.AlternateURL),
		Title:   "hh.ru resume: " + p.Occupation,
		Content: p.ContextString(),
	}

	return p, source, nil
}

func parseHHDate(s string) *YearMonth {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Package jobs loads job definitions: what the position is, who would be
// ideal for it and which traits candidates are judged on.
package jobs

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/spigell/candidate-evaluator/internal/evaluation"
)

// Definition is a parsed job file.
type Definition struct {
	Title         string
	Description   string
	IdealProfiles []string
	Traits        []evaluation.Trait
}

type fileTrait struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	Required    *bool  `yaml:"required"`
}

type file struct {
	Title         string      `yaml:"title"`
	Description   string      `yaml:"description"`
	IdealProfiles []string    `yaml:"ideal-profiles"`
	Traits        []fileTrait `yaml:"traits"`
}

// Load reads a job definition from a YAML file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a job definition and validates its traits. Traits default
// to the boolean kind and to being required. The description may be empty
// when it comes from elsewhere, see Validate.
func Parse(data []byte) (*Definition, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse job definition: %w", err)
	}

	def := &Definition{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
	}

	for _, profile := range f.IdealProfiles {
		if profile = strings.TrimSpace(profile); profile != "" {
			def.IdealProfiles = append(def.IdealProfiles, profile)
		}
	}

	seen := make(map[string]struct{}, len(f.Traits))
	def.Traits = make([]evaluation.Trait, 0, len(f.Traits))
	for i, ft := range f.Traits {
		trait, err := ft.toTrait()
		if err != nil {
			return nil, fmt.Errorf("trait %d: %w", i+1, err)
		}
		key := strings.ToLower(trait.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("trait %d: duplicate name %q", i+1, trait.Name)
		}
		seen[key] = struct{}{}
		def.Traits = append(def.Traits, trait)
	}

	return def, nil
}

// Validate reports whether the definition is complete enough to evaluate against.
func (d *Definition) Validate() error {
	if d.Description == "" {
		return errors.New("job description is required")
	}
	return nil
}

// Override replaces title and description, for jobs read from hh.ru.
// Empty values keep the current ones.
func (d *Definition) Override(title, description string) {
	if title = strings.TrimSpace(title); title != "" {
		d.Title = title
	}
	if description = strings.TrimSpace(description); description != "" {
		d.Description = description
	}
}

func (ft fileTrait) toTrait() (evaluation.Trait, error) {
	trait := evaluation.Trait{
		Name:        strings.TrimSpace(ft.Name),
		Description: strings.TrimSpace(ft.Description),
		Kind:        evaluation.KindBoolean,
		Required:    true,
	}
	if trait.Name == "" {
		return trait, errors.New("name is required")
	}
	if strings.TrimSpace(ft.Kind) != "" {
		kind, err := evaluation.ParseKind(ft.Kind)
		if err != nil {
			return trait, err
		}
		trait.Kind = kind
	}
	if ft.Required != nil {
		trait.Required = *ft.Required
	}
	return trait, nil
}

// Job converts the definition into what an evaluation run consumes.
func (d *Definition) Job() evaluation.Job {
	return evaluation.Job{
		Title:         d.Title,
		Description:   d.Description,
		IdealProfiles: append([]string(nil), d.IdealProfiles...),
	}
}

package profile

import (
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Candidate is the content of a candidate file.
type Candidate struct {
	Profile *Profile
	Sources []Source
}

type candidateFile struct {
	Profile map[string]any `yaml:"profile"`
	Sources []Source       `yaml:"sources"`
}

// LoadFile reads a YAML or JSON candidate file:
//
//	profile: {full_name: ..., experiences: [...]}
//	sources: [{url: ..., title: ..., content: ...}]
func LoadFile(path string) (*Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidate file: %w", err)
	}
	return Parse(data)
}

// Parse decodes candidate file content. JSON is accepted as YAML.
func Parse(data []byte) (*Candidate, error) {
	var file candidateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse candidate file: %w", err)
	}
	if file.Profile == nil {
		return nil, errors.New("candidate file has no profile")
	}

	p, err := Decode(file.Profile)
	if err != nil {
		return nil, err
	}

	for i, s := range file.Sources {
		if s.URL == "" {
			return nil, fmt.Errorf("source %d has no url", i+1)
		}
	}

	return &Candidate{Profile: p, Sources: file.Sources}, nil
}

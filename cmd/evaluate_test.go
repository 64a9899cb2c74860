package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/spigell/candidate-evaluator/internal/ai"
	"github.com/spigell/candidate-evaluator/internal/evaluation"
	"github.com/spigell/candidate-evaluator/internal/headhunter"
	"github.com/spigell/candidate-evaluator/internal/history"
)

const testJob = `
title: Go Engineer
description: Build services in Go.
traits:
  - name: Go
    description: Production Go experience.
    kind: score
  - name: Mentoring
    description: Has mentored engineers.
    required: false
`

const testCandidate = `
profile:
  full_name: Alex Doe
  occupation: Engineer at Acme
sources:
  - url: https://example.com/alex
    title: Blog
    content: Writes about Go.
`

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testConfig() *Config {
	return &Config{
		Evaluation: &EvaluationConfig{MaxConcurrency: 2, TraitTimeout: time.Second, Summary: true},
		Headhunter: &HeadhunterConfig{},
		History:    &HistoryConfig{},
	}
}

type stubAssistant struct{}

func (stubAssistant) EvaluateTrait(_ context.Context, req evaluation.TraitRequest) (*evaluation.Judgment, error) {
	if req.Trait.Kind == evaluation.KindScore {
		return &evaluation.Judgment{Value: evaluation.ScoreValue(9), Rationale: "Strong Go."}, nil
	}
	return &evaluation.Judgment{Value: evaluation.BoolValue(false), Rationale: "No mentoring."}, nil
}

func (stubAssistant) AssessFit(context.Context, evaluation.FitRequest) (*evaluation.FitVerdict, error) {
	return &evaluation.FitVerdict{Score: 3, Rationale: "Good."}, nil
}

func (stubAssistant) Summarize(context.Context, evaluation.SummaryRequest) (string, error) {
	return "Hire.", nil
}

func TestPrepareInputFromFiles(t *testing.T) {
	config := testConfig()
	config.JobFile = writeFile(t, "job.yaml", testJob)
	config.CandidateFile = writeFile(t, "candidate.yaml", testCandidate)
	config.Instructions = "Prefer backend work."

	input, title, err := prepareInput(context.Background(), config, "", "", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "Alex Doe / Go Engineer", title)
	assert.Len(t, input.Traits, 2)
	assert.Equal(t, "Alex Doe", input.Candidate.FullName)
	assert.Contains(t, input.Candidate.Context, "Engineer at Acme")
	assert.Equal(t, "[1] Blog (https://example.com/alex)\nWrites about Go.", input.Sources)
	assert.Equal(t, []evaluation.Citation{{Number: 1, Title: "Blog", URL: "https://example.com/alex"}}, input.Citations)
	assert.Equal(t, "Prefer backend work.", input.Instructions)
}

func TestPrepareInputValidation(t *testing.T) {
	t.Setenv("HH_TOKEN", "")
	job := writeFile(t, "job.yaml", testJob)
	candidate := writeFile(t, "candidate.yaml", testCandidate)

	cases := map[string]struct {
		jobFile, candidateFile, resume string
	}{
		"no job":              {candidateFile: candidate},
		"no candidate":        {jobFile: job},
		"file and resume":     {jobFile: job, candidateFile: candidate, resume: "abc"},
		"missing job file":    {jobFile: filepath.Join(t.TempDir(), "none.yaml"), candidateFile: candidate},
		"resume without auth": {jobFile: job, resume: "abc"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			config := testConfig()
			config.JobFile = tc.jobFile
			config.CandidateFile = tc.candidateFile

			_, _, err := prepareInput(context.Background(), config, tc.resume, "", zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestPrepareInputFromHeadhunter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/vacancies/42":
			_, _ = w.Write([]byte(`{"id": "42", "name": "Backend Developer", "employer": {"name": "Acme"}, "description": "<p>Payments.</p>"}`))
		case "/resumes/abc":
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"first_name": "Ivan", "last_name": "Petrov", "title": "Go developer", "alternate_url": "https://hh.ru/resume/abc"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	original := newHeadhunter
	newHeadhunter = func(token string, cfg *HeadhunterConfig, log *zap.Logger) *headhunter.Client {
		hh := original(token, cfg, log)
		hh.APIURL = server.URL
		return hh
	}
	t.Cleanup(func() { newHeadhunter = original })

	config := testConfig()
	config.JobFile = writeFile(t, "job.yaml", "traits: [{name: Go}]")
	config.Headhunter.TokenFile = writeFile(t, "token", "secret\n")

	input, title, err := prepareInput(context.Background(), config, "abc", "42", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "Ivan Petrov / Backend Developer", title)
	assert.Equal(t, "Backend Developer", input.Job.Title)
	assert.Contains(t, input.Job.Description, "Payments.")
	assert.Equal(t, "Ivan Petrov", input.Candidate.FullName)
	require.Len(t, input.Citations, 1)
	assert.Equal(t, "https://hh.ru/resume/abc", input.Citations[0].URL)
}

func TestPrepareInputRequiresDescription(t *testing.T) {
	config := testConfig()
	config.JobFile = writeFile(t, "job.yaml", "traits: [{name: Go}]")
	config.CandidateFile = writeFile(t, "candidate.yaml", testCandidate)

	_, _, err := prepareInput(context.Background(), config, "", "", zap.NewNop())
	assert.ErrorContains(t, err, "job description is required")
}

func TestEvaluatePipeline(t *testing.T) {
	original := assistantFactory
	assistantFactory = func(context.Context, *ai.Config, *zap.Logger) (ai.Assistant, error) {
		return stubAssistant{}, nil
	}
	t.Cleanup(func() { assistantFactory = original })

	config := testConfig()
	config.JobFile = writeFile(t, "job.yaml", testJob)
	config.CandidateFile = writeFile(t, "candidate.yaml", testCandidate)

	ctx := context.Background()
	input, _, err := prepareInput(ctx, config, "", "", zap.NewNop())
	require.NoError(t, err)

	engine, err := newEngine(ctx, config, zap.NewNop())
	require.NoError(t, err)

	report, err := engine.Run(ctx, *input)
	require.NoError(t, err)

	assert.Equal(t, 9.0, report.OverallScore)
	assert.Equal(t, 1, report.RequiredMet)
	assert.Equal(t, 0, report.OptionalMet)
	assert.Equal(t, "Hire.", report.Summary)

	dbPath := filepath.Join(t.TempDir(), "history.db")
	id, err := saveHistory(ctx, dbPath, input, report)
	require.NoError(t, err)

	store, err := history.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	record, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alex Doe", record.CandidateName)
	assert.Equal(t, "Go Engineer", record.JobTitle)
	assert.Equal(t, 3, record.FitScore)
}

func TestNewEngineWithoutSummary(t *testing.T) {
	original := assistantFactory
	assistantFactory = func(context.Context, *ai.Config, *zap.Logger) (ai.Assistant, error) {
		return stubAssistant{}, nil
	}
	t.Cleanup(func() { assistantFactory = original })

	config := testConfig()
	config.Evaluation.Summary = false

	engine, err := newEngine(context.Background(), config, zap.NewNop())
	require.NoError(t, err)

	report, err := engine.Run(context.Background(), evaluation.Input{
		Traits: []evaluation.Trait{{Name: "Go", Kind: evaluation.KindScore, Required: true}},
	})
	require.NoError(t, err)
	assert.Empty(t, report.Summary)
}

func sampleReport() *evaluation.Report {
	return &evaluation.Report{
		Sections: []evaluation.Section{
			{TraitName: "Go", Kind: evaluation.KindScore, Content: "Strong Go.", Value: evaluation.ScoreValue(9), NormalizedScore: 9, Required: true},
		},
		RequiredMet:  1,
		OverallScore: 9,
		Fit:          &evaluation.FitVerdict{Score: 3, Rationale: "Good."},
		Citations:    []evaluation.Citation{},
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "report.json")
	require.NoError(t, writeReport(jsonPath, sampleReport()))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded evaluation.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 9.0, decoded.OverallScore)
	assert.Equal(t, evaluation.KindScore, decoded.Sections[0].Kind)

	yamlPath := filepath.Join(dir, "report.yaml")
	require.NoError(t, writeReport(yamlPath, sampleReport()))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, yaml.Unmarshal(data, &generic))
	assert.EqualValues(t, 9, generic["overall_score"])
	sections, ok := generic["sections"].([]any)
	require.True(t, ok)
	assert.Equal(t, "Go", sections[0].(map[string]any)["trait"])

	assert.Error(t, writeReport(filepath.Join(dir, "report.txt"), sampleReport()))
}

func TestDumpToTmpFile(t *testing.T) {
	filename, err := dumpToTmpFile(sampleReport())
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(filename) })

	assert.True(t, strings.HasSuffix(filename, ".json"))
	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"overall_score": 9`)
}

func TestHandleAction(t *testing.T) {
	var out bytes.Buffer
	evaluateCmd.SetOut(&out)
	t.Cleanup(func() { evaluateCmd.SetOut(nil) })

	require.NoError(t, handleAction(evaluateCmd, PromptPrint, "Alex Doe", sampleReport(), zap.NewNop()))
	assert.Contains(t, out.String(), "Strong Go.")

	assert.ErrorIs(t, handleAction(evaluateCmd, PromptExit, "", sampleReport(), zap.NewNop()), errExit)
	assert.Error(t, handleAction(evaluateCmd, "unknown", "", sampleReport(), zap.NewNop()))
}

func TestPrintRecords(t *testing.T) {
	var out bytes.Buffer
	records := []history.Record{
		{ID: "id-1", CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC), CandidateName: "Alex Doe", JobTitle: "Go Engineer", OverallScore: 8.5, FitScore: 3},
		{ID: "id-2", CreatedAt: time.Date(2026, 1, 1, 3, 4, 0, 0, time.UTC), CandidateName: "Sam Roe", OverallScore: 4, FitScore: 1},
	}

	require.NoError(t, printRecords(&out, records))

	text := ansi.ReplaceAllString(out.String(), "")
	for _, want := range []string{"CANDIDATE", "SCORE", "Alex Doe", "Go Engineer", "8.5", "Sam Roe", "4.0"} {
		assert.Contains(t, text, want)
	}
	assert.Less(t, strings.Index(text, "Alex Doe"), strings.Index(text, "Sam Roe"))
	assert.Equal(t, "Alex Doe / Go Engineer", recordTitle(&records[0]))
	assert.Equal(t, "Sam Roe", recordTitle(&records[1]))

	out.Reset()
	require.NoError(t, printRecords(&out, nil))
	assert.Equal(t, "no saved evaluations\n", out.String())
}

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/candidate-evaluator/internal/evaluation"
	applog "github.com/spigell/candidate-evaluator/internal/logger"
	"github.com/spigell/candidate-evaluator/internal/utils"
	"go.uber.org/zap"
)

// ContentGenerator sends a system instruction and a user message to a model.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

var (
	//go:embed trait.md
	traitTemplate string
	//go:embed fit.md
	fitTemplate string
	//go:embed summary.md
	summaryTemplate string
)

const (
	defaultMaxLogLength     = 200
	maxUserInstructionRunes = 1000

	traitMessage   = "Evaluate the candidate on this trait based on the provided information."
	fitMessage     = "Assess how well the candidate fits the job based on the provided information."
	summaryMessage = "Write a recommendation on how good of a fit the candidate is for the job based on the provided information."

	booleanValueRules  = "- Answer true if there is sufficient evidence, or it can be reasonably inferred, that the candidate meets everything the trait describes. Otherwise answer false."
	booleanValueSchema = "<true or false>"
	scoreValueRules    = "- Rate the candidate on the trait from 0 (no evidence at all) to 10 (fully and convincingly demonstrated)."
	scoreValueSchema   = "<number from 0 to 10>"
)

// Evaluator answers trait, fit and summary requests with Gemini.
type Evaluator struct {
	generator ContentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewEvaluator(generator ContentGenerator, maxLogLength int, logger *zap.Logger) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Evaluator{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (e *Evaluator) EvaluateTrait(ctx context.Context, req evaluation.TraitRequest) (*evaluation.Judgment, error) {
	if strings.TrimSpace(req.Trait.Name) == "" {
		return nil, errors.New("trait name is required")
	}

	system := buildTraitPrompt(req)
	raw, err := e.generate(ctx, system, traitMessage, applog.TraitFields(req.Trait.Name, req.Trait.Kind.String())...)
	if err != nil {
		return nil, err
	}

	judgment, err := parseTraitResponse(req.Trait.Kind, raw)
	if err != nil {
		return nil, fmt.Errorf("trait %q: %w", req.Trait.Name, err)
	}
	return judgment, nil
}

func (e *Evaluator) AssessFit(ctx context.Context, req evaluation.FitRequest) (*evaluation.FitVerdict, error) {
	raw, err := e.generate(ctx, buildFitPrompt(req), fitMessage, zap.String(applog.FieldRequest, "fit"))
	if err != nil {
		return nil, err
	}
	return parseFitResponse(raw)
}

func (e *Evaluator) Summarize(ctx context.Context, req evaluation.SummaryRequest) (string, error) {
	raw, err := e.generate(ctx, buildSummaryPrompt(req), summaryMessage, zap.String(applog.FieldRequest, "summary"))
	if err != nil {
		return "", err
	}
	return parseSummaryResponse(raw)
}

func (e *Evaluator) generate(ctx context.Context, system, message string, fields ...zap.Field) (string, error) {
	log := e.logger.With(fields...)
	log.Debug("gemini evaluation prompt",
		zap.Int("prompt_length", utf8.RuneCountInString(system)),
		zap.String("prompt_preview", utils.TruncateForLog(system, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return "", err
	}

	log.Debug("gemini evaluation answer",
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)
	return raw, nil
}

func buildTraitPrompt(req evaluation.TraitRequest) string {
	rules, schema := booleanValueRules, booleanValueSchema
	if req.Trait.Kind == evaluation.KindScore {
		rules, schema = scoreValueRules, scoreValueSchema
	}

	return fill(traitTemplate, map[string]string{
		"VALUE_RULES":       rules,
		"VALUE_SCHEMA":      schema,
		"USER_INSTRUCTIONS": sanitizeUserInstructions(req.Instructions),
		"TRAIT_NAME":        orNone(req.Trait.Name),
		"TRAIT_DESCRIPTION": orNone(req.Trait.Description),
		"CANDIDATE_NAME":    orNone(req.Candidate.FullName),
		"CANDIDATE_CONTEXT": orNone(req.Candidate.Context),
		"SOURCES":           orNone(req.Sources),
	})
}

func buildFitPrompt(req evaluation.FitRequest) string {
	return fill(fitTemplate, map[string]string{
		"USER_INSTRUCTIONS": sanitizeUserInstructions(req.Instructions),
		"JOB_DESCRIPTION":   orNone(req.Job.Description),
		"IDEAL_PROFILES":    formatIdealProfiles(req.Job.IdealProfiles),
		"CANDIDATE_NAME":    orNone(req.Candidate.FullName),
		"CANDIDATE_CONTEXT": orNone(req.Candidate.Context),
		"SOURCES":           orNone(req.Sources),
		"EVALUATIONS":       orNone(req.Evaluations),
	})
}

func buildSummaryPrompt(req evaluation.SummaryRequest) string {
	return fill(summaryTemplate, map[string]string{
		"USER_INSTRUCTIONS": sanitizeUserInstructions(req.Instructions),
		"JOB_DESCRIPTION":   orNone(req.Job.Description),
		"CANDIDATE_NAME":    orNone(req.CandidateName),
		"EVALUATIONS":       orNone(req.Evaluations),
	})
}

func fill(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func formatIdealProfiles(profiles []string) string {
	var builder strings.Builder
	n := 0
	for _, profile := range profiles {
		profile = strings.TrimSpace(profile)
		if profile == "" {
			continue
		}
		n++
		fmt.Fprintf(&builder, "Ideal profile %d:\n%s\n==============================================\n", n, profile)
	}
	if n == 0 {
		return "none"
	}
	return strings.TrimSpace(builder.String())
}

// sanitizeUserInstructions renders free-form instructions as an indented
// list. Square brackets become parentheses so the text cannot open a new
// prompt section.
func sanitizeUserInstructions(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return "  - none"
	}

	runes := []rune(input)
	if len(runes) > maxUserInstructionRunes {
		runes = runes[:maxUserInstructionRunes]
	}
	input = strings.NewReplacer("[", "(", "]", ")").Replace(string(runes))

	lines := make([]string, 0)
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, "  - "+line)
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "none"
	}
	return s
}

func parseObject(raw string) (map[string]any, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	return data, nil
}

func parseTraitResponse(kind evaluation.Kind, raw string) (*evaluation.Judgment, error) {
	data, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	return &evaluation.Judgment{
		Value:     coerceValue(kind, data["value"]),
		Rationale: coerceString(data["evaluation"]),
	}, nil
}

func parseFitResponse(raw string) (*evaluation.FitVerdict, error) {
	data, err := parseObject(raw)
	if err != nil {
		return nil, err
	}

	score := coerceFloat(data["fit_score"])
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, fmt.Errorf("gemini response has no usable fit_score: %v", data["fit_score"])
	}

	// Clamp before converting: huge floats overflow int.
	score = math.Max(evaluation.MinFitScore, math.Min(evaluation.MaxFitScore, score))

	return &evaluation.FitVerdict{
		Score:     int(math.Round(score)),
		Rationale: coerceString(data["reasoning"]),
	}, nil
}

func parseSummaryResponse(raw string) (string, error) {
	data, err := parseObject(raw)
	if err != nil {
		return "", err
	}

	recommendation := coerceString(data["recommendation"])
	if recommendation == "" {
		return "", errors.New("gemini response has no recommendation")
	}
	return recommendation, nil
}

// coerceValue keeps the type the model answered with, except that a number
// for a boolean trait reads as true when positive (the 1/-1 encoding). Other
// mismatches are left for normalization to flag.
func coerceValue(kind evaluation.Kind, v any) evaluation.Value {
	switch val := v.(type) {
	case bool:
		return evaluation.BoolValue(val)
	case float64:
		if kind == evaluation.KindBoolean && !math.IsNaN(val) {
			return evaluation.BoolValue(val > 0)
		}
		return evaluation.ScoreValue(val)
	case string:
		trimmed := strings.TrimSpace(val)
		switch kind {
		case evaluation.KindBoolean:
			switch strings.ToLower(trimmed) {
			case "true", "yes":
				return evaluation.BoolValue(true)
			case "false", "no":
				return evaluation.BoolValue(false)
			}
		case evaluation.KindScore:
			if f := coerceFloat(trimmed); !math.IsNaN(f) {
				return evaluation.ScoreValue(f)
			}
		}
		return evaluation.InvalidValue(trimmed)
	case nil:
		return evaluation.InvalidValue("")
	default:
		return evaluation.InvalidValue(coerceString(val))
	}
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

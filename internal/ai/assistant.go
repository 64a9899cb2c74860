package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/candidate-evaluator/internal/ai/gemini"
	"github.com/spigell/candidate-evaluator/internal/evaluation"
	"github.com/spigell/candidate-evaluator/internal/logger"
	"github.com/spigell/candidate-evaluator/internal/secrets"
	"go.uber.org/zap"
)

const ProviderGemini = "gemini"

// Assistant answers every question an evaluation run asks an AI model.
type Assistant interface {
	evaluation.TraitEvaluator
	evaluation.FitAssessor
	evaluation.Summarizer
}

type Config struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

// generatorFactory is replaced in tests so no network client is built.
var generatorFactory = func(ctx context.Context, apiKey string, opts gemini.GeneratorOptions) (gemini.ContentGenerator, error) {
	return gemini.NewGenerator(ctx, apiKey, opts)
}

// NewAssistant builds the Assistant for the configured provider.
func NewAssistant(ctx context.Context, cfg *Config, log *zap.Logger) (Assistant, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = ProviderGemini
	}
	if provider != ProviderGemini {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	geminiCfg := cfg.Gemini
	if geminiCfg == nil {
		geminiCfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  geminiCfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
		Value: geminiCfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	aiLogger := logger.WithAIFields(log, provider, geminiCfg.Model)

	generator, err := generatorFactory(ctx, apiKey, gemini.GeneratorOptions{
		Model:        geminiCfg.Model,
		MaxRetries:   geminiCfg.MaxRetries,
		MaxLogLength: geminiCfg.MaxLogLength,
		Logger:       aiLogger.With(zap.Int("ai_retry_attempts", geminiCfg.MaxRetries)),
	})
	if err != nil {
		return nil, err
	}

	return gemini.NewEvaluator(generator, geminiCfg.MaxLogLength, aiLogger), nil
}

package ai

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spigell/candidate-evaluator/internal/ai/gemini"
	"github.com/spigell/candidate-evaluator/internal/evaluation"
	"go.uber.org/zap"
)

type cannedGenerator struct {
	response string
}

func (c cannedGenerator) GenerateContent(context.Context, string, string) (string, error) {
	return c.response, nil
}

func stubFactory(t *testing.T, response string) *gemini.GeneratorOptions {
	t.Helper()

	original := generatorFactory
	t.Cleanup(func() { generatorFactory = original })

	captured := &gemini.GeneratorOptions{}
	generatorFactory = func(_ context.Context, apiKey string, opts gemini.GeneratorOptions) (gemini.ContentGenerator, error) {
		if apiKey != "secret-key" {
			t.Fatalf("unexpected api key %q", apiKey)
		}
		*captured = opts
		return cannedGenerator{response: response}, nil
	}
	return captured
}

func TestNewAssistantUnsupportedProvider(t *testing.T) {
	_, err := NewAssistant(context.Background(), &Config{Provider: "openai"}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "unsupported ai provider") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}
}

func TestNewAssistantRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewAssistant(context.Background(), &Config{}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY_FILE") {
		t.Fatalf("expected missing key hint, got %v", err)
	}
}

func TestNewAssistantReadsKeyFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "gemini.key")
	if err := os.WriteFile(keyFile, []byte("secret-key\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	opts := stubFactory(t, `{"value": true, "evaluation": "ok"}`)

	assistant, err := NewAssistant(context.Background(), &Config{
		Provider: " Gemini ",
		Gemini:   &GeminiConfig{APIKeyFile: keyFile, Model: "gemini-flash", MaxRetries: 3},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if opts.Model != "gemini-flash" || opts.MaxRetries != 3 {
		t.Fatalf("generator options not passed through: %+v", opts)
	}

	judgment, err := assistant.EvaluateTrait(context.Background(), evaluation.TraitRequest{
		Trait: evaluation.Trait{Name: "Go", Kind: evaluation.KindBoolean},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !judgment.Value.Truthy() {
		t.Fatalf("expected truthy judgment, got %v", judgment.Value)
	}
}

func TestNewAssistantInlineKey(t *testing.T) {
	stubFactory(t, `{"recommendation": "Hire."}`)

	assistant, err := NewAssistant(context.Background(), &Config{Gemini: &GeminiConfig{APIKey: "secret-key"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := assistant.Summarize(context.Background(), evaluation.SummaryRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "Hire." {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log keys shared across packages.
const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldRequest   = "request"
	FieldTrait     = "trait"
	FieldKind      = "kind"
	FieldCandidate = "candidate"
	FieldJob       = "job"
)

// StringField is a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, trimming whitespace
// and omitting entries with an empty key or value.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// AIFields describe the model answering evaluation requests.
func AIFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithAIFields attaches AIFields to logger.
func WithAIFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, AIFields(provider, model)...)
}

// TraitFields identify a single trait evaluation.
func TraitFields(name, kind string) []zap.Field {
	return StringFields(
		StringField{Key: FieldTrait, Value: name},
		StringField{Key: FieldKind, Value: kind},
	)
}

// RunFields identify an evaluation run.
func RunFields(candidate, job string) []zap.Field {
	return StringFields(
		StringField{Key: FieldCandidate, Value: candidate},
		StringField{Key: FieldJob, Value: job},
	)
}

package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  trait  ", Value: "  Go  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "trait" || fields[0].String != "Go" {
		t.Fatalf("unexpected trait field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if ctx := entries[0].ContextMap(); ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	fallback := WithFields(nil, zap.String("baz", "qux"))
	if fallback == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	fallback.Info("does not panic")
}

func TestWithAIFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithAIFields(zap.New(core), "gemini", "").Info("request")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("expected provider field, got %v", ctx)
	}
	if _, ok := ctx[FieldModel]; ok {
		t.Fatalf("empty model must be omitted: %v", ctx)
	}
}

func TestTraitAndRunFields(t *testing.T) {
	trait := TraitFields("Go experience", "score")
	if len(trait) != 2 || trait[0].Key != FieldTrait || trait[1].String != "score" {
		t.Fatalf("unexpected trait fields: %+v", trait)
	}

	run := RunFields("Alex Doe", "")
	if len(run) != 1 || run[0].Key != FieldCandidate || run[0].String != "Alex Doe" {
		t.Fatalf("unexpected run fields: %+v", run)
	}
}

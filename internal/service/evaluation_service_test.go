package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"studywat/internal/domain"
	"studywat/internal/llm"
)

func TestEvaluateAnswerHappyPath(t *testing.T) {
	cat := mustCatalog(t, "motivation", "interests")
	llmClient := &llm.MockClient{
		JSONResponse: `{"trait": "motivation", "label": "intrinsic", "confidence": 0.85, "evidence": "loves learning for its own sake"}`,
	}
	svc := NewEvaluationService(llmClient, cat, zap.NewNop())

	got, ok := svc.EvaluateAnswer(context.Background(), "What drives you?", "I just love learning new things")
	if !ok {
		t.Fatalf("expected an observation")
	}
	if got.Trait != "motivation" || got.Label != "intrinsic" {
		t.Fatalf("unexpected observation: %+v", got)
	}
	if got.Confidence != 0.85 {
		t.Fatalf("expected confidence 0.85, got %f", got.Confidence)
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}
}

func TestEvaluateAnswerEmptyObjectMeansNoSignal(t *testing.T) {
	cat := mustCatalog(t, "motivation")
	llmClient := &llm.MockClient{JSONResponse: `{}`}
	svc := NewEvaluationService(llmClient, cat, zap.NewNop())

	if _, ok := svc.EvaluateAnswer(context.Background(), "turn", "ok"); ok {
		t.Fatalf("expected no observation for an empty object")
	}
}

func TestEvaluateAnswerRejectsTraitOutsideCatalog(t *testing.T) {
	cat := mustCatalog(t, "motivation")
	llmClient := &llm.MockClient{
		JSONResponse: `{"trait": "astrology_sign", "label": "leo", "confidence": 0.99, "evidence": "n/a"}`,
	}
	svc := NewEvaluationService(llmClient, cat, zap.NewNop())

	if _, ok := svc.EvaluateAnswer(context.Background(), "turn", "answer"); ok {
		t.Fatalf("expected traits outside the catalog to be rejected")
	}
}

func TestEvaluateAnswerSentinelOnHardFailure(t *testing.T) {
	cat := mustCatalog(t, "motivation")
	llmClient := &llm.MockClient{JSONErr: errors.New("llm down")}
	svc := NewEvaluationService(llmClient, cat, zap.NewNop())

	got, ok := svc.EvaluateAnswer(context.Background(), "turn", "answer")
	if !ok {
		t.Fatalf("expected the sentinel observation, not a discard")
	}
	if got.Trait != domain.TraitKeyUnknown {
		t.Fatalf("expected sentinel trait %q, got %q", domain.TraitKeyUnknown, got.Trait)
	}
	if got.Confidence != 0.0 {
		t.Fatalf("expected sentinel confidence 0.0, got %f", got.Confidence)
	}
}

func TestEvaluateAnswerSentinelOnGarbage(t *testing.T) {
	cat := mustCatalog(t, "motivation")
	llmClient := &llm.MockClient{JSONResponse: "sorry, I cannot help with that"}
	svc := NewEvaluationService(llmClient, cat, zap.NewNop())

	got, ok := svc.EvaluateAnswer(context.Background(), "turn", "answer")
	if !ok || got.Trait != domain.TraitKeyUnknown {
		t.Fatalf("expected sentinel for unparseable output, got ok=%v obs=%+v", ok, got)
	}
}

func TestEvaluateAnswerMissingConfidenceDefaultsToZero(t *testing.T) {
	cat := mustCatalog(t, "motivation")
	llmClient := &llm.MockClient{
		JSONResponse: `{"trait": "motivation", "label": "intrinsic", "evidence": "snippet"}`,
	}
	svc := NewEvaluationService(llmClient, cat, zap.NewNop())

	got, ok := svc.EvaluateAnswer(context.Background(), "turn", "answer")
	if !ok {
		t.Fatalf("expected an observation")
	}
	if got.Confidence != 0.0 {
		t.Fatalf("expected missing confidence to default to 0.0, got %f", got.Confidence)
	}
}

func TestEvaluateAnswerFencedJSONFallback(t *testing.T) {
	cat := mustCatalog(t, "motivation")
	llmClient := &llm.MockClient{
		JSONResponse: "Here you go:\n```json\n{\"trait\": \"motivation\", \"label\": \"career\", \"confidence\": 0.7, \"evidence\": \"wants a stable job\"}\n```",
	}
	svc := NewEvaluationService(llmClient, cat, zap.NewNop())

	got, ok := svc.EvaluateAnswer(context.Background(), "turn", "answer")
	if !ok {
		t.Fatalf("expected fallback extraction to succeed")
	}
	if got.Trait != "motivation" || got.Label != "career" {
		t.Fatalf("unexpected observation: %+v", got)
	}
}

func TestEvaluateAnswerEmptyLabelAndEvidenceCoerced(t *testing.T) {
	cat := mustCatalog(t, "motivation")
	llmClient := &llm.MockClient{
		JSONResponse: `{"trait": "motivation", "confidence": 0.6}`,
	}
	svc := NewEvaluationService(llmClient, cat, zap.NewNop())

	got, ok := svc.EvaluateAnswer(context.Background(), "turn", "answer")
	if !ok {
		t.Fatalf("expected an observation")
	}
	if got.Label != "unknown" || got.Evidence != "unknown" {
		t.Fatalf("expected empty fields coerced to unknown, got %+v", got)
	}
}

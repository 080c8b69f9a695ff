package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"studywat/internal/catalog"
	"studywat/internal/domain"
	"studywat/internal/llm"
)

// EvaluationService usa el LLM para extraer una observación de rasgo de la
// respuesta libre del usuario, validada contra el catálogo.
type EvaluationService struct {
	llmClient llm.LLMClient
	cat       *catalog.TraitCatalog
	logger    *zap.Logger
	timeout   time.Duration
}

func NewEvaluationService(llmClient llm.LLMClient, cat *catalog.TraitCatalog, logger *zap.Logger) *EvaluationService {
	return &EvaluationService{
		llmClient: llmClient,
		cat:       cat,
		logger:    logger,
		timeout:   30 * time.Second,
	}
}

// evalResult es la salida estructurada que pedimos al LLM evaluador.
type evalResult struct {
	Trait      string   `json:"trait"`
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence"`
	Evidence   string   `json:"evidence"`
}

// EvaluateAnswer clasifica la respuesta del usuario contra el catálogo.
// Devuelve ok=false cuando la respuesta no aporta señal (objeto vacío o rasgo
// fuera del catálogo). Ante un fallo duro del LLM devuelve la observación
// centinela con Trait == domain.TraitKeyUnknown en vez de propagar el error;
// los callers la descartan por clave.
func (s *EvaluationService) EvaluateAnswer(ctx context.Context, lastTurn, userAnswer string) (domain.TraitObservation, bool) {
	prompt := s.buildPrompt(lastTurn, userAnswer)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.llmClient.GenerateJSON(ctx, prompt)
	if err != nil {
		s.logger.Warn("evaluation llm call failed", zap.Error(err))
		return s.sentinelObservation(), true
	}

	result, ok := parseEvalResult(raw)
	if !ok {
		s.logger.Warn("evaluation response unparseable", zap.String("raw", truncateForLog(raw, 200)))
		return s.sentinelObservation(), true
	}

	trait := strings.TrimSpace(result.Trait)
	if trait == "" {
		// Objeto vacío: el LLM no encontró señal en la respuesta.
		return domain.TraitObservation{}, false
	}
	if !s.cat.Contains(trait) {
		s.logger.Debug("evaluation trait outside catalog", zap.String("trait", trait))
		return domain.TraitObservation{}, false
	}

	confidence := 0.0
	if result.Confidence != nil {
		confidence = *result.Confidence
	}
	label := strings.TrimSpace(result.Label)
	if label == "" {
		label = "unknown"
	}
	evidence := strings.TrimSpace(result.Evidence)
	if evidence == "" {
		evidence = "unknown"
	}

	return domain.TraitObservation{
		Trait:      trait,
		Label:      label,
		Confidence: confidence,
		Evidence:   evidence,
		Timestamp:  time.Now().UTC(),
	}, true
}

func (s *EvaluationService) buildPrompt(lastTurn, userAnswer string) string {
	var sb strings.Builder
	sb.WriteString("You are an educational psychologist. Here are the traits we are interested in, with their descriptions:\n")
	for _, d := range s.cat.Definitions() {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", d.Trait, d.Description))
	}
	sb.WriteString("Given the following turn and user answer, select the most relevant trait (from the list above). ")
	sb.WriteString("For the selected trait, return a JSON object with these fields: ")
	sb.WriteString("trait (the trait key from the list), label (the specific characteristic, e.g., 'visual learner'), ")
	sb.WriteString("confidence (float between 0 and 1), and evidence (short text snippet justifying the label). ")
	sb.WriteString("If the user's answer does not provide any information about a trait, return an empty JSON object {}.\n")
	sb.WriteString("Turn: " + lastTurn + "\n")
	sb.WriteString("Answer: " + userAnswer)
	return sb.String()
}

// parseEvalResult intenta el parse estructurado y cae a extraer el primer
// objeto JSON del texto crudo.
func parseEvalResult(raw string) (evalResult, bool) {
	cleaned := cleanLLMJSONResponse(raw)

	var result evalResult
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		return result, true
	}

	obj := extractFirstJSONObject(cleaned)
	if obj == "" {
		obj = extractFirstJSONObject(raw)
	}
	if obj == "" {
		return evalResult{}, false
	}
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return evalResult{}, false
	}
	return result, true
}

func (s *EvaluationService) sentinelObservation() domain.TraitObservation {
	return domain.TraitObservation{
		Trait:      domain.TraitKeyUnknown,
		Label:      "unknown",
		Confidence: 0.0,
		Evidence:   "Could not parse LLM response.",
		Timestamp:  time.Now().UTC(),
	}
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

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

// recommendationCount es el tamaño exacto del lote pedido al LLM.
const recommendationCount = 10

// RecommendationService pide al LLM las carreras que mejor calzan con los
// rasgos del perfil, repartidas en tres grupos de afinidad relativa.
type RecommendationService struct {
	llmClient llm.LLMClient
	fields    []catalog.CourseEntry
	logger    *zap.Logger
	timeout   time.Duration
}

func NewRecommendationService(llmClient llm.LLMClient, fields []catalog.CourseEntry, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{
		llmClient: llmClient,
		fields:    fields,
		logger:    logger,
		timeout:   60 * time.Second,
	}
}

// RecommendCourses genera el lote de recomendaciones. Cualquier fallo (llamada,
// timeout, parseo) degrada a lista vacía; nunca propaga error.
func (s *RecommendationService) RecommendCourses(ctx context.Context, traits []domain.TraitObservation) []domain.RecommendationItem {
	prompt := s.buildPrompt(traits)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.llmClient.GenerateJSON(ctx, prompt)
	if err != nil {
		s.logger.Warn("recommendation llm call failed", zap.Error(err))
		return []domain.RecommendationItem{}
	}

	items, ok := parseRecommendations(raw)
	if !ok {
		s.logger.Warn("recommendation response unparseable", zap.String("raw", truncateForLog(raw, 200)))
		return []domain.RecommendationItem{}
	}
	return items
}

func (s *RecommendationService) buildPrompt(traits []domain.TraitObservation) string {
	var sb strings.Builder
	sb.WriteString("You are an educational advisor. Here is a list of courses and their descriptions:\n")
	for _, f := range s.fields {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Course, f.Description))
	}
	sb.WriteString(fmt.Sprintf("Given the following user's traits, recommend the %d most relevant courses.\n", recommendationCount))
	sb.WriteString("For each course, assign a relative fit category:\n")
	sb.WriteString("- course_fit: 1 (best fit, top group), 2 (medium fit, middle group), or 3 (lower fit, bottom group).\n")
	sb.WriteString("- There should be at least 2-3 courses in each fit group.\n")
	sb.WriteString(fmt.Sprintf("- The assignment should be relative: compare all %d courses you recommend and distribute them into these three groups based on how well they fit the user's traits compared to each other.\n", recommendationCount))
	sb.WriteString("For each course, return a JSON object with these fields:\n")
	sb.WriteString("- course (the course name)\n")
	sb.WriteString("- course_fit (1, 2, or 3)\n")
	sb.WriteString("- matched_traits (a list of the user's trait labels from the 'label' field in the traits that are relevant to this course)\n")
	sb.WriteString("- reason (1-2 sentences explaining why it's a good match)\n")
	sb.WriteString(fmt.Sprintf("Return ONLY a JSON array of %d objects, with NO extra text, explanation, or formatting.\n", recommendationCount))
	sb.WriteString("User traits: " + serializeTraits(traits))
	return sb.String()
}

// serializeTraits convierte las observaciones a JSON con timestamps RFC3339
// (forma portable para el prompt).
func serializeTraits(traits []domain.TraitObservation) string {
	type portableTrait struct {
		Trait      string  `json:"trait"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		Evidence   string  `json:"evidence"`
		Timestamp  string  `json:"timestamp"`
	}
	portable := make([]portableTrait, 0, len(traits))
	for _, t := range traits {
		portable = append(portable, portableTrait{
			Trait:      t.Trait,
			Label:      t.Label,
			Confidence: t.Confidence,
			Evidence:   t.Evidence,
			Timestamp:  t.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	data, err := json.Marshal(portable)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// parseRecommendations intenta el parse estructurado y cae al primer arreglo
// JSON encontrado en el texto crudo.
func parseRecommendations(raw string) ([]domain.RecommendationItem, bool) {
	cleaned := cleanLLMJSONResponse(raw)

	var items []domain.RecommendationItem
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return items, true
	}

	arr := extractFirstJSONArray(cleaned)
	if arr == "" {
		arr = extractFirstJSONArray(raw)
	}
	if arr == "" {
		return nil, false
	}
	if err := json.Unmarshal([]byte(arr), &items); err != nil {
		return nil, false
	}
	return items, true
}

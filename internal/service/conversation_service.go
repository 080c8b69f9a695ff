package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"studywat/internal/catalog"
	"studywat/internal/domain"
	"studywat/internal/llm"
)

// Mensajes fijos del compositor de turnos.
const (
	closingMessage = "Thank you for sharing! We now have enough information to make recommendations."
	errorFragment  = "I'm having trouble generating a response right now. Please try again in a moment."
)

// ConversationService compone el siguiente turno del asesor y lo expone como
// una secuencia finita de fragmentos de texto. Consumir el canal es la única
// forma de avanzar la generación; si el consumidor abandona (cancela ctx) el
// productor se detiene.
type ConversationService struct {
	llmClient    llm.LLMClient
	cat          *catalog.TraitCatalog
	probes       []catalog.ProbeStrategy
	enhancements []catalog.Enhancement
	threshold    float64
	logger       *zap.Logger
}

func NewConversationService(
	llmClient llm.LLMClient,
	cat *catalog.TraitCatalog,
	probes []catalog.ProbeStrategy,
	enhancements []catalog.Enhancement,
	threshold float64,
	logger *zap.Logger,
) *ConversationService {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &ConversationService{
		llmClient:    llmClient,
		cat:          cat,
		probes:       probes,
		enhancements: enhancements,
		threshold:    threshold,
		logger:       logger,
	}
}

// Phase expone la fase actual del perfil con el umbral del servicio.
func (s *ConversationService) Phase(profile domain.Profile) Phase {
	return ClassifyPhase(s.cat, profile.Traits, s.threshold)
}

// StreamNextTurn genera el siguiente turno del asesor según la fase.
// Nunca devuelve error: un fallo de generación o transporte produce un único
// fragmento centinela y el canal se cierra.
func (s *ConversationService) StreamNextTurn(ctx context.Context, profile domain.Profile, history []domain.ChatMessage) <-chan string {
	out := make(chan string, 1)

	phase := s.Phase(profile)
	if phase == PhaseRecommendation {
		// El motor ya no hace preguntas: un único fragmento de cierre.
		out <- closingMessage
		close(out)
		return out
	}

	prompt := s.buildTurnPrompt(phase, profile, history)

	go func() {
		defer close(out)

		chunks, err := s.llmClient.GenerateStream(ctx, prompt)
		if err != nil {
			s.logger.Warn("turn stream open failed", zap.Error(err), zap.String("phase", string(phase)))
			s.emit(ctx, out, errorFragment)
			return
		}

		for chunk := range chunks {
			if chunk.Err != nil {
				s.logger.Warn("turn stream broke", zap.Error(chunk.Err), zap.String("phase", string(phase)))
				s.emit(ctx, out, errorFragment)
				return
			}
			if !s.emit(ctx, out, chunk.Text) {
				return
			}
		}
	}()

	return out
}

// emit envía un fragmento respetando el abandono del consumidor.
func (s *ConversationService) emit(ctx context.Context, out chan<- string, fragment string) bool {
	select {
	case out <- fragment:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *ConversationService) buildTurnPrompt(phase Phase, profile domain.Profile, history []domain.ChatMessage) string {
	var task string
	switch phase {
	case PhaseConsolidation:
		if low, ok := firstLowConfidenceTrait(s.cat, profile.Traits, s.threshold); ok {
			task = fmt.Sprintf(
				"The user profile shows low confidence for the trait '%s'. Description: %s\n"+
					"Ask a clarifying or follow-up question to help better understand this trait. "+
					"Be specific and conversational.",
				strings.ReplaceAll(low.Trait, "_", " "),
				s.cat.Describe(low.Trait),
			)
		} else {
			task = "Ask a follow-up question to clarify the user's profile."
		}
	case PhaseExploration:
		missing := MissingTraits(s.cat, profile.Traits)
		if len(missing) > 0 {
			var lines []string
			for _, key := range missing {
				lines = append(lines, fmt.Sprintf("- %s: %s", key, s.cat.Describe(key)))
			}
			task = fmt.Sprintf(
				"Here are the traits we still need to learn about:\n%s\n"+
					"Based on the conversation so far, select the trait that is most natural or relevant to ask about next. "+
					"Then, use the best probe to elicit information about that trait.",
				strings.Join(lines, "\n"),
			)
		} else {
			task = "Ask a question to learn more about the user."
		}
	default:
		task = "Ask a question to learn more about the user."
	}

	var sb strings.Builder
	sb.WriteString(s.enhancementsSection())
	sb.WriteString("\n\n")
	sb.WriteString(s.probesSection())
	sb.WriteString("\n\n")
	sb.WriteString("You are a study advisor. Given the user's profile and the conversation so far, here is your task: ")
	sb.WriteString(task)
	sb.WriteString("\n")
	sb.WriteString("Profile: " + serializeProfile(profile) + "\n")
	sb.WriteString("Conversation: " + serializeHistory(history) + "\n")
	sb.WriteString("Next turn: \n")
	sb.WriteString("Important: Only output the final message or question you would say to the user. " +
		"Do not include your reasoning, trait selection, or probe selection in your response.")
	return sb.String()
}

func (s *ConversationService) probesSection() string {
	lines := []string{
		"Here are some example probes you can use to engage the user and elicit information about a trait:",
	}
	for _, p := range s.probes {
		lines = append(lines, fmt.Sprintf("- %s: %s", p.Strategy, p.Description))
	}
	lines = append(lines, "You are not limited to these probes; use whichever approach you think will best engage the user and elicit the needed information.")
	return strings.Join(lines, "\n")
}

func (s *ConversationService) enhancementsSection() string {
	lines := []string{
		"Here are some conversational enhancements you can use to make the chat more engaging and supportive (use them when it feels natural, not every turn):",
	}
	for _, e := range s.enhancements {
		lines = append(lines, fmt.Sprintf("- %s: %s", e.Name, e.Instruction))
	}
	return strings.Join(lines, "\n")
}

func serializeProfile(profile domain.Profile) string {
	data, err := json.Marshal(profile)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func serializeHistory(history []domain.ChatMessage) string {
	if len(history) == 0 {
		return "(no prior messages)"
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}

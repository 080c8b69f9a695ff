package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"studywat/internal/catalog"
	"studywat/internal/config"
	"studywat/internal/db"
	"studywat/internal/domain"
	"studywat/internal/llm"
	"studywat/internal/repository"
	"studywat/internal/service"
)

// Cliente interactivo de consola para probar el asesor de estudio sin pasar
// por la capa HTTP. Usa el mismo wiring que el servidor.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	cat, err := catalog.LoadTraitCatalog(cfg.TraitsManifestPath)
	if err != nil {
		log.Fatalf("cargar traits: %v", err)
	}
	probes, err := catalog.LoadProbes(cfg.ProbesManifestPath)
	if err != nil {
		log.Fatalf("cargar probes: %v", err)
	}
	enhancements, err := catalog.LoadEnhancements(cfg.EnhancementsManifestPath)
	if err != nil {
		log.Fatalf("cargar enhancements: %v", err)
	}
	fields, err := catalog.LoadFieldsOfStudy(cfg.FieldsOfStudyPath)
	if err != nil {
		log.Fatalf("cargar fields of study: %v", err)
	}

	profileRepo := repository.NewPgProfileRepository(pool)
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)

	profileSvc := service.NewProfileService(profileRepo)
	evalSvc := service.NewEvaluationService(llmClient, cat, logger)
	convSvc := service.NewConversationService(llmClient, cat, probes, enhancements, cfg.ConfidenceThreshold, logger)
	recSvc := service.NewRecommendationService(llmClient, fields, logger)
	refresher := service.NewRecommendationRefresher(recSvc, profileSvc, logger)
	defer refresher.Stop()
	orchSvc := service.NewOrchestratorService(profileSvc, evalSvc, refresher, cat, logger)

	fmt.Print("User ID: ")
	userID, _ := reader.ReadString('\n')
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = "cli_user"
	}

	fmt.Println("===== Study Advisor =====")
	fmt.Println("Comandos: /history, /traits, /recs, /clear, /quit")

	for {
		fmt.Print("\nTú: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch line {
		case "/quit":
			return
		case "/history":
			history, err := orchSvc.GetChatHistory(ctx, userID)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			for _, m := range history {
				fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format(time.RFC3339), m.Role, m.Content)
			}
			continue
		case "/traits":
			profile, err := profileSvc.GetProfile(ctx, userID)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			for _, t := range profile.Traits {
				fmt.Printf("- %s = %s (%.2f): %s\n", t.Trait, t.Label, t.Confidence, t.Evidence)
			}
			continue
		case "/recs":
			recs, err := profileSvc.GetCoursesRecommendation(ctx, userID)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			if len(recs) == 0 {
				fmt.Println("No recommendations available yet. Please check back later.")
				continue
			}
			for _, r := range recs {
				fmt.Printf("- [fit %d] %s (%s)\n", r.CourseFit, r.Course, strings.Join(r.MatchedTraits, ", "))
			}
			continue
		case "/clear":
			if err := orchSvc.ClearChatHistory(ctx, userID); err != nil {
				fmt.Printf("error: %v\n", err)
			}
			continue
		}

		history, err := orchSvc.GetChatHistory(ctx, userID)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		result, err := orchSvc.ProcessUserMessage(ctx, userID, line, history)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		for _, a := range result.Alerts {
			fmt.Printf("[%s] %s\n", a.Type, a.Message)
		}

		turnHistory := append(history, domain.ChatMessage{
			Role:      domain.RoleUser,
			Content:   line,
			Timestamp: time.Now().UTC(),
			Alerts:    []domain.Alert{},
		})

		fmt.Print("Asesor: ")
		var sb strings.Builder
		for fragment := range convSvc.StreamNextTurn(ctx, result.Profile, turnHistory) {
			sb.WriteString(fragment)
			fmt.Print(fragment)
		}
		fmt.Println()

		turn := sb.String()
		if strings.TrimSpace(turn) == "" {
			continue
		}
		msg := domain.ChatMessage{
			Role:      domain.RoleAssistant,
			Content:   turn,
			Timestamp: time.Now().UTC(),
			Alerts:    result.Alerts,
		}
		if err := profileSvc.AppendChatHistory(ctx, userID, msg); err != nil {
			fmt.Printf("error guardando turno: %v\n", err)
		}
	}
}

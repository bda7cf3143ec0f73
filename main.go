package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	api "mailbot-backend/cmd/api"
	assistantUsecase "mailbot-backend/internal/assistant/usecase"
	authdomain "mailbot-backend/internal/auth/domain"
	authRepo "mailbot-backend/internal/auth/repository"
	authUsecase "mailbot-backend/internal/auth/usecase"
	chatdomain "mailbot-backend/internal/chat/domain"
	chatRepo "mailbot-backend/internal/chat/repository"
	chatUsecase "mailbot-backend/internal/chat/usecase"
	"mailbot-backend/internal/digest"
	"mailbot-backend/pkg/ai"
	"mailbot-backend/pkg/config"
	"mailbot-backend/pkg/database"
	"mailbot-backend/pkg/gmail"
	"mailbot-backend/pkg/telegram"

	"golang.org/x/oauth2"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.RefreshToken{}, &chatdomain.ChatLink{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	chatLinkRepo := chatRepo.NewChatLinkRepository(db)

	// Initialize Gmail service
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	// Initialize AI service
	aiService, err := ai.NewService(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize AI service:", err)
	}
	log.Printf("AI service initialized with provider: %s", cfg.AIProvider)

	// Initialize Telegram client
	telegramClient := telegram.NewClient(cfg.TelegramBotToken)

	// Mailbox factory: opens a Gmail client with the user's stored tokens and
	// persists refreshed tokens back to the user row.
	mailboxFor := func(ctx context.Context, userID string) (assistantUsecase.Mailbox, error) {
		user, err := userRepo.FindByID(userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, errors.New("user not found")
		}
		return gmailService.ClientForUser(ctx, user.GoogleAccessToken, user.GoogleRefreshToken, func(token *oauth2.Token) error {
			return userRepo.UpdateGoogleTokens(userID, token.AccessToken, token.RefreshToken)
		})
	}

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, gmailService, cfg)
	linkUsecaseInstance := chatUsecase.NewLinkUsecase(chatLinkRepo, userRepo)
	controller := assistantUsecase.NewController(aiService, mailboxFor, cfg.AllowDestructiveActions)

	// Start the digest scheduler
	scheduler := digest.NewScheduler(chatLinkRepo, mailboxFor, aiService, telegramClient, digest.Options{
		Interval:   cfg.DigestInterval,
		Query:      cfg.DigestQuery,
		Label:      cfg.DigestLabel,
		MaxResults: cfg.DigestMaxResults,
		MaxWorkers: cfg.DigestMaxWorkers,
		Timeout:    cfg.DigestTimeout,
	})
	go scheduler.Start()

	// Stop the scheduler cleanly on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down", sig)
		scheduler.Stop()
		os.Exit(0)
	}()

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, linkUsecaseInstance, controller, telegramClient, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

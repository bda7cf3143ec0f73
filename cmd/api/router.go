package api

import (
	"net/http"

	assistantDelivery "mailbot-backend/internal/assistant/delivery"
	"mailbot-backend/internal/auth/delivery"
	authUsecase "mailbot-backend/internal/auth/usecase"
	chatDelivery "mailbot-backend/internal/chat/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, chatHandler *assistantDelivery.ChatHandler, webhookHandler *chatDelivery.WebhookHandler, scheduleHandler *chatDelivery.ScheduleHandler) {
	authHandler := delivery.NewAuthHandler(authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Telegram webhook (called by Telegram servers, no auth)
		telegramGroup := api.Group("/telegram")
		{
			telegramGroup.POST("/webhook", webhookHandler.HandleUpdate)
			telegramGroup.GET("/webhook-test", webhookHandler.HandleWebhookTest)
		}

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", delivery.AuthMiddleware(authUsecase), authHandler.Me)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/google/url", delivery.AuthMiddleware(authUsecase), authHandler.GoogleAuthURL)
			auth.POST("/google", delivery.AuthMiddleware(authUsecase), authHandler.ConnectGoogle)
		}

		// Assistant chat (protected)
		llm := api.Group("/llm")
		llm.Use(delivery.AuthMiddleware(authUsecase))
		{
			llm.POST("/chat", chatHandler.HandleChat)
		}

		// Digest schedule (protected)
		users := api.Group("/users")
		users.Use(delivery.AuthMiddleware(authUsecase))
		{
			users.GET("/schedule", scheduleHandler.GetSchedule)
			users.PUT("/schedule", scheduleHandler.UpdateSchedule)
		}
	}
}

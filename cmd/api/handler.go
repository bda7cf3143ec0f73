package api

import (
	assistantDelivery "mailbot-backend/internal/assistant/delivery"
	assistantUsecase "mailbot-backend/internal/assistant/usecase"
	authUsecase "mailbot-backend/internal/auth/usecase"
	chatDelivery "mailbot-backend/internal/chat/delivery"
	chatUsecasePkg "mailbot-backend/internal/chat/usecase"
	"mailbot-backend/pkg/config"
	"mailbot-backend/pkg/telegram"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	config          *config.Config
	chatHandler     *assistantDelivery.ChatHandler
	webhookHandler  *chatDelivery.WebhookHandler
	scheduleHandler *chatDelivery.ScheduleHandler
}

func NewHandler(authUc authUsecase.AuthUsecase, linkUc chatUsecasePkg.LinkUsecase, controller *assistantUsecase.Controller, telegramClient *telegram.Client, cfg *config.Config) *Handler {
	return &Handler{
		authUsecase:     authUc,
		config:          cfg,
		chatHandler:     assistantDelivery.NewChatHandler(controller),
		webhookHandler:  chatDelivery.NewWebhookHandler(linkUc, telegramClient, cfg.ClientURL),
		scheduleHandler: chatDelivery.NewScheduleHandler(linkUc),
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.chatHandler, h.webhookHandler, h.scheduleHandler)

	return r.Run(addr)
}

package delivery

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"mailbot-backend/internal/chat/usecase"
	"mailbot-backend/pkg/telegram"

	"github.com/gin-gonic/gin"
)

// MessageSender is the outbound side of the chat platform, narrowed to
// what the webhook needs.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
}

// telegramUpdate mirrors the fields of the Telegram update payload the
// webhook actually reads.
type telegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  struct {
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type WebhookHandler struct {
	linkUsecase usecase.LinkUsecase
	sender      MessageSender
	clientURL   string
}

func NewWebhookHandler(linkUsecase usecase.LinkUsecase, sender MessageSender, clientURL string) *WebhookHandler {
	return &WebhookHandler{
		linkUsecase: linkUsecase,
		sender:      sender,
		clientURL:   clientURL,
	}
}

// HandleUpdate receives Telegram webhook updates. The only conversation
// it carries is the link handshake: "/start <token>" (or any message
// whose second word is the token). Everything else gets an instruction
// on how to link.
func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	var update telegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Printf("[TelegramWebhook] Failed to parse update: %v", err)
		// Always 200 so Telegram does not retry the same broken update.
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)
	if chatID == 0 || text == "" {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	fields := strings.Fields(text)
	if len(fields) < 2 {
		h.reply(c, chatID, "כדי לחבר את הבוט לחשבון שלך, שלח: /start <קוד החיבור מהאתר>", "")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	token := fields[1]

	h.reply(c, chatID, "היי! מחברים אותך, כמה רגעים...", "")

	if err := h.linkUsecase.LinkChat(token, chatID); err != nil {
		log.Printf("[TelegramWebhook] Link failed for chat %d: %v", chatID, err)
		h.reply(c, chatID, "החיבור נכשל. נסה שנית מאוחר יותר.", "")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	log.Printf("[TelegramWebhook] Linked chat %d to user %s", chatID, token)
	success := fmt.Sprintf("החיבור הצליח! מעכשיו תקבל כאן עדכונים מהעוזר האישי שלך.\n<a href=\"%s/connection-telegram\">חזרה לאתר</a>", h.clientURL)
	h.reply(c, chatID, success, telegram.ParseModeHTML)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HandleWebhookTest lets operators verify the route is reachable after
// registering it with setWebhook.
func (h *WebhookHandler) HandleWebhookTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "telegram webhook is up"})
}

func (h *WebhookHandler) reply(c *gin.Context, chatID int64, text, parseMode string) {
	if err := h.sender.SendMessage(c.Request.Context(), chatID, text, parseMode); err != nil {
		log.Printf("[TelegramWebhook] Failed to send message to chat %d: %v", chatID, err)
	}
}

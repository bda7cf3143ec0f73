package delivery

import (
	"net/http"

	"mailbot-backend/internal/assistant/usecase"

	"github.com/gin-gonic/gin"
)

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type ChatHandler struct {
	controller *usecase.Controller
}

func NewChatHandler(controller *usecase.Controller) *ChatHandler {
	return &ChatHandler{controller: controller}
}

// HandleChat runs one assistant turn for the authenticated user.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.controller.HandleUtterance(c.Request.Context(), userID.(string), req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reply)
}

package delivery

import (
	"errors"
	"net/http"
	"regexp"

	"mailbot-backend/internal/chat/usecase"

	"github.com/gin-gonic/gin"
)

var scheduleTimePattern = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)

type ScheduleRequest struct {
	ScheduleTime string `json:"schedule_time" binding:"required"`
}

// ScheduleHandler exposes the per-user digest schedule over the API.
type ScheduleHandler struct {
	linkUsecase usecase.LinkUsecase
}

func NewScheduleHandler(linkUsecase usecase.LinkUsecase) *ScheduleHandler {
	return &ScheduleHandler{linkUsecase: linkUsecase}
}

func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	scheduleTime, err := h.linkUsecase.GetScheduleTime(userID)
	if err != nil {
		if errors.Is(err, usecase.ErrNotLinked) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No chat linked yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule_time": scheduleTime})
}

func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !scheduleTimePattern.MatchString(req.ScheduleTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "schedule_time must be HH:MM or HH:MM:SS"})
		return
	}

	if err := h.linkUsecase.SetScheduleTime(userID, req.ScheduleTime); err != nil {
		if errors.Is(err, usecase.ErrNotLinked) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No chat linked yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule_time": req.ScheduleTime})
}

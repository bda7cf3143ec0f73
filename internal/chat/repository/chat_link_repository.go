package repository

import (
	"errors"
	"time"

	chatdomain "mailbot-backend/internal/chat/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatLinkRepository is the identity-store surface for chat links.
type ChatLinkRepository interface {
	Upsert(link *chatdomain.ChatLink) error
	FindByUserID(userID string) (*chatdomain.ChatLink, error)
	FindAll() ([]chatdomain.ChatLink, error)
	UpdateScheduleTime(userID, scheduleTime string) error
}

type chatLinkRepository struct {
	db *gorm.DB
}

func NewChatLinkRepository(db *gorm.DB) ChatLinkRepository {
	return &chatLinkRepository{
		db: db,
	}
}

// Upsert inserts the link or, on conflict, replaces the chat id for that
// user. A stored schedule time survives re-linking.
func (r *chatLinkRepository) Upsert(link *chatdomain.ChatLink) error {
	link.CreatedAt = time.Now()
	link.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chat_id", "updated_at"}),
	}).Create(link).Error
}

func (r *chatLinkRepository) FindByUserID(userID string) (*chatdomain.ChatLink, error) {
	var link chatdomain.ChatLink
	err := r.db.Where("user_id = ?", userID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *chatLinkRepository) FindAll() ([]chatdomain.ChatLink, error) {
	var links []chatdomain.ChatLink
	if err := r.db.Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *chatLinkRepository) UpdateScheduleTime(userID, scheduleTime string) error {
	return r.db.Model(&chatdomain.ChatLink{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"schedule_time": scheduleTime,
			"updated_at":    time.Now(),
		}).Error
}

package domain

import "time"

// ChatLink associates a site user with a chat conversation. ScheduleTime is
// the user's daily digest time as "HH:MM" or "HH:MM:SS"; empty means no
// digest. Links are upserted keyed on UserID and never deleted by this
// system.
type ChatLink struct {
	UserID       string    `json:"user_id" gorm:"primaryKey"`
	ChatID       int64     `json:"chat_id"`
	ScheduleTime string    `json:"schedule_time"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

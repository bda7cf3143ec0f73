package usecase

import (
	"errors"

	authdomain "mailbot-backend/internal/auth/domain"
	chatdomain "mailbot-backend/internal/chat/domain"
	"mailbot-backend/internal/chat/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid link token")
	ErrNotLinked    = errors.New("no chat linked for user")
)

// UserFinder looks up an account by id. Satisfied by the auth user
// repository.
type UserFinder interface {
	FindByID(id string) (*authdomain.User, error)
}

// LinkUsecase connects a chat id to an application user and manages the
// per-user digest schedule.
type LinkUsecase interface {
	LinkChat(token string, chatID int64) error
	GetScheduleTime(userID string) (string, error)
	SetScheduleTime(userID, scheduleTime string) error
}

type linkUsecase struct {
	chatLinkRepo repository.ChatLinkRepository
	users        UserFinder
}

func NewLinkUsecase(chatLinkRepo repository.ChatLinkRepository, users UserFinder) LinkUsecase {
	return &linkUsecase{
		chatLinkRepo: chatLinkRepo,
		users:        users,
	}
}

// LinkChat validates the token the user pasted into the chat and stores
// the chat id under that user. The token is the user's own id, so it must
// parse as a UUID and belong to an existing account before we touch the
// link store.
func (uc *linkUsecase) LinkChat(token string, chatID int64) error {
	if _, err := uuid.Parse(token); err != nil {
		return ErrInvalidToken
	}
	user, err := uc.users.FindByID(token)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidToken
	}
	return uc.chatLinkRepo.Upsert(&chatdomain.ChatLink{
		UserID: token,
		ChatID: chatID,
	})
}

func (uc *linkUsecase) GetScheduleTime(userID string) (string, error) {
	link, err := uc.chatLinkRepo.FindByUserID(userID)
	if err != nil {
		return "", err
	}
	if link == nil {
		return "", ErrNotLinked
	}
	return link.ScheduleTime, nil
}

func (uc *linkUsecase) SetScheduleTime(userID, scheduleTime string) error {
	link, err := uc.chatLinkRepo.FindByUserID(userID)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrNotLinked
	}
	return uc.chatLinkRepo.UpdateScheduleTime(userID, scheduleTime)
}

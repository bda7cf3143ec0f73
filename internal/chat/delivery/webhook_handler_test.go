package delivery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	authdomain "mailbot-backend/internal/auth/domain"
	chatdomain "mailbot-backend/internal/chat/domain"
	"mailbot-backend/internal/chat/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []sentMessage
}

type sentMessage struct {
	chatID    int64
	text      string
	parseMode string
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text, parseMode string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, parseMode: parseMode})
	return nil
}

type fakeLinkRepo struct {
	links map[string]*chatdomain.ChatLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: map[string]*chatdomain.ChatLink{}}
}

func (f *fakeLinkRepo) Upsert(link *chatdomain.ChatLink) error {
	if existing, ok := f.links[link.UserID]; ok {
		existing.ChatID = link.ChatID
		return nil
	}
	f.links[link.UserID] = link
	return nil
}

func (f *fakeLinkRepo) FindByUserID(userID string) (*chatdomain.ChatLink, error) {
	return f.links[userID], nil
}

func (f *fakeLinkRepo) FindAll() ([]chatdomain.ChatLink, error) {
	var out []chatdomain.ChatLink
	for _, l := range f.links {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeLinkRepo) UpdateScheduleTime(userID, scheduleTime string) error {
	if l, ok := f.links[userID]; ok {
		l.ScheduleTime = scheduleTime
	}
	return nil
}

// fakeUserFinder recognizes every well-formed id except those marked
// unknown, so tests can pick fresh UUID tokens freely.
type fakeUserFinder struct {
	unknown map[string]bool
}

func (f *fakeUserFinder) FindByID(id string) (*authdomain.User, error) {
	if f.unknown[id] {
		return nil, nil
	}
	return &authdomain.User{ID: id}, nil
}

func setupWebhookRouter(repo *fakeLinkRepo, sender *fakeSender) *gin.Engine {
	return setupWebhookRouterWithUsers(repo, sender, &fakeUserFinder{})
}

func setupWebhookRouterWithUsers(repo *fakeLinkRepo, sender *fakeSender, users usecase.UserFinder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewWebhookHandler(usecase.NewLinkUsecase(repo, users), sender, "https://app.example.com")
	router := gin.New()
	router.POST("/api/telegram/webhook", handler.HandleUpdate)
	router.GET("/api/telegram/webhook-test", handler.HandleWebhookTest)
	return router
}

func postUpdate(t *testing.T, router *gin.Engine, chatID int64, text string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"update_id":1,"message":{"message_id":10,"text":%q,"chat":{"id":%d}}}`, text, chatID)
	req := httptest.NewRequest(http.MethodPost, "/api/telegram/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookLinkSuccess(t *testing.T) {
	repo := newFakeLinkRepo()
	sender := &fakeSender{}
	router := setupWebhookRouter(repo, sender)

	token := uuid.NewString()
	w := postUpdate(t, router, 555, "/start "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "היי! מחברים אותך, כמה רגעים...", sender.sent[0].text)
	assert.Contains(t, sender.sent[1].text, "https://app.example.com/connection-telegram")
	assert.Equal(t, "HTML", sender.sent[1].parseMode)

	link, err := repo.FindByUserID(token)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, int64(555), link.ChatID)
}

func TestWebhookInvalidToken(t *testing.T) {
	repo := newFakeLinkRepo()
	sender := &fakeSender{}
	router := setupWebhookRouter(repo, sender)

	w := postUpdate(t, router, 555, "/start not-a-uuid")

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "החיבור נכשל. נסה שנית מאוחר יותר.", sender.sent[1].text)
	assert.Empty(t, repo.links)
}

func TestWebhookUnknownUserNotLinked(t *testing.T) {
	repo := newFakeLinkRepo()
	sender := &fakeSender{}
	token := uuid.NewString()
	router := setupWebhookRouterWithUsers(repo, sender, &fakeUserFinder{unknown: map[string]bool{token: true}})

	// A well-formed token for a user that does not exist must not create a
	// dangling link.
	w := postUpdate(t, router, 555, "/start "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "החיבור נכשל. נסה שנית מאוחר יותר.", sender.sent[1].text)
	assert.Empty(t, repo.links)
}

func TestWebhookMissingToken(t *testing.T) {
	repo := newFakeLinkRepo()
	sender := &fakeSender{}
	router := setupWebhookRouter(repo, sender)

	w := postUpdate(t, router, 555, "/start")

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].text, "קוד החיבור")
}

func TestWebhookRelinkKeepsSchedule(t *testing.T) {
	repo := newFakeLinkRepo()
	sender := &fakeSender{}
	router := setupWebhookRouter(repo, sender)

	token := uuid.NewString()
	postUpdate(t, router, 555, "/start "+token)
	require.NoError(t, repo.UpdateScheduleTime(token, "08:30"))

	postUpdate(t, router, 777, "/start "+token)

	link, err := repo.FindByUserID(token)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, int64(777), link.ChatID)
	assert.Equal(t, "08:30", link.ScheduleTime)
}

func TestWebhookTestRoute(t *testing.T) {
	router := setupWebhookRouter(newFakeLinkRepo(), &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/api/telegram/webhook-test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

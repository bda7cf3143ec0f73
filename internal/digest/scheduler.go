package digest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	assistantusecase "mailbot-backend/internal/assistant/usecase"
	chatdomain "mailbot-backend/internal/chat/domain"
	"mailbot-backend/internal/chat/repository"
	"mailbot-backend/pkg/ai"
	"mailbot-backend/pkg/gmail"
)

// MessageSender pushes the rendered digest to the chat channel.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
}

// Options tune one scheduler instance.
type Options struct {
	Interval   time.Duration // tick period; may be well under a minute
	Query      string        // fixed mailbox search query
	Label      string
	MaxResults int
	MaxWorkers int           // upper bound on concurrent per-user digests
	Timeout    time.Duration // deadline for one user's whole digest
}

// Scheduler fires per-user mailbox digests when a user's stored time of day
// matches the wall clock at minute resolution. Dispatch is idempotent per
// minute, so a sub-minute tick never delivers the same digest twice, and one
// user's digest never overlaps with itself.
type Scheduler struct {
	chatLinkRepo repository.ChatLinkRepository
	mailboxFor   assistantusecase.MailboxFactory
	aiService    ai.Service
	sender       MessageSender
	opts         Options

	now func() time.Time

	mu       sync.Mutex
	lastRun  map[string]string // userID -> "2006-01-02 15:04" of last dispatch
	inFlight map[string]bool

	sem      chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(chatLinkRepo repository.ChatLinkRepository, mailboxFor assistantusecase.MailboxFactory, aiService ai.Service, sender MessageSender, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 20 * time.Second
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 3
	}
	return &Scheduler{
		chatLinkRepo: chatLinkRepo,
		mailboxFor:   mailboxFor,
		aiService:    aiService,
		sender:       sender,
		opts:         opts,
		now:          time.Now,
		lastRun:      make(map[string]string),
		inFlight:     make(map[string]bool),
		sem:          make(chan struct{}, opts.MaxWorkers),
		stopChan:     make(chan struct{}),
	}
}

// Start runs the tick loop until Stop is called.
func (s *Scheduler) Start() {
	log.Printf("[DigestScheduler] Started, checking every %v", s.opts.Interval)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-s.stopChan:
			log.Println("[DigestScheduler] Stopped")
			return
		}
	}
}

// Stop halts the tick loop and waits for in-flight digests to finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

// Tick scans the chat links once and dispatches a digest for every user whose
// schedule matches the current minute and has not fired this minute yet.
func (s *Scheduler) Tick() {
	links, err := s.chatLinkRepo.FindAll()
	if err != nil {
		log.Printf("[DigestScheduler] Failed to load chat links: %v", err)
		return
	}

	now := s.now()
	currentMinute := now.Format("15:04")
	minuteKey := now.Format("2006-01-02 15:04")

	for _, link := range links {
		if link.ScheduleTime == "" || link.ChatID == 0 {
			continue
		}
		// Stored times may carry seconds ("HH:MM:SS"); compare at minute
		// resolution.
		scheduled := link.ScheduleTime
		if len(scheduled) > 5 {
			scheduled = scheduled[:5]
		}
		if scheduled != currentMinute {
			continue
		}
		if !s.claim(link.UserID, minuteKey) {
			continue
		}

		s.wg.Add(1)
		go func(link chatdomain.ChatLink) {
			defer s.wg.Done()
			defer s.release(link.UserID)

			s.sem <- struct{}{}
			defer func() { <-s.sem }()

			ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
			defer cancel()
			s.runDigest(ctx, link)
		}(link)
	}
}

// claim marks the user as dispatched for this minute. It refuses when the
// user already fired this minute or a previous digest is still running.
func (s *Scheduler) claim(userID, minuteKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun[userID] == minuteKey || s.inFlight[userID] {
		return false
	}
	s.lastRun[userID] = minuteKey
	s.inFlight[userID] = true
	return true
}

func (s *Scheduler) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}

func (s *Scheduler) runDigest(ctx context.Context, link chatdomain.ChatLink) {
	mailbox, err := s.mailboxFor(ctx, link.UserID)
	if err != nil {
		log.Printf("[DigestScheduler] Mailbox unavailable for user %s: %v", link.UserID, err)
		return
	}

	result, err := mailbox.Search(ctx, gmail.SearchOptions{
		Query:      s.opts.Query,
		Label:      s.opts.Label,
		MaxResults: s.opts.MaxResults,
	})
	if err != nil {
		log.Printf("[DigestScheduler] Search failed for user %s: %v", link.UserID, err)
		return
	}
	if result.Count == 0 {
		log.Printf("[DigestScheduler] No messages for user %s, skipping push", link.UserID)
		return
	}

	text, err := s.aiService.SummarizeEmails(ctx, renderMessages(result.Messages))
	if err != nil {
		log.Printf("[DigestScheduler] Summarization failed for user %s: %v", link.UserID, err)
		return
	}

	if err := s.sender.SendMessage(ctx, link.ChatID, text, ""); err != nil {
		log.Printf("[DigestScheduler] Failed to push digest to chat %d: %v", link.ChatID, err)
		return
	}
	log.Printf("[DigestScheduler] Delivered digest of %d messages to user %s", result.Count, link.UserID)
}

func renderMessages(messages []gmail.EmailMessage) string {
	var b strings.Builder
	for i, msg := range messages {
		attachments := "No"
		if msg.HasAttachments {
			attachments = "Yes"
		}
		fmt.Fprintf(&b, "%d. Subject: %s\n   From: %s\n   Date: %s\n   Attachments: %s\n   Snippet: %s\n",
			i+1, msg.Subject, msg.Sender, msg.Date, attachments, msg.Snippet)
	}
	return b.String()
}

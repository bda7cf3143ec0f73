package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"mailbot-backend/internal/assistant/domain"
	"mailbot-backend/pkg/ai"
	"mailbot-backend/pkg/gmail"
)

// Mailbox is the mailbox surface the controller drives, narrowed to the five
// operations it dispatches.
type Mailbox interface {
	Search(ctx context.Context, opts gmail.SearchOptions) (*gmail.SearchResult, error)
	GetMessageDetails(ctx context.Context, msgID string) (*gmail.EmailMessage, error)
	GetMessageBody(ctx context.Context, msgID string) (string, error)
	Delete(ctx context.Context, msgID string) error
	Send(ctx context.Context, msg gmail.OutgoingMessage) (string, error)
}

// MailboxFactory opens a mailbox for one user, refreshing credentials as
// needed.
type MailboxFactory func(ctx context.Context, userID string) (Mailbox, error)

type sessionState struct {
	mu sync.Mutex
	domain.Session
}

// Controller runs the conversational email workflow. Session state is keyed
// per user; one user's turns are serialized so two turns can never interleave
// over the same in-flight draft.
//
// Every free-text reply is routed through the style pass inside reply();
// handlers never hand raw text to the user directly.
type Controller struct {
	aiService   ai.Service
	mailboxFor  MailboxFactory
	allowDelete bool

	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewController(aiService ai.Service, mailboxFor MailboxFactory, allowDelete bool) *Controller {
	return &Controller{
		aiService:   aiService,
		mailboxFor:  mailboxFor,
		allowDelete: allowDelete,
		sessions:    make(map[string]*sessionState),
	}
}

func (c *Controller) session(userID string) *sessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[userID]
	if !ok {
		s = &sessionState{Session: domain.Session{Mode: domain.ModeNeutral}}
		c.sessions[userID] = s
	}
	return s
}

// Mode reports the session's current state. Mostly useful for tests and
// diagnostics.
func (c *Controller) Mode(userID string) domain.Mode {
	s := c.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Mode
}

// HandleUtterance processes one user turn and returns the assistant's reply.
func (c *Controller) HandleUtterance(ctx context.Context, userID, utterance string) (*domain.Reply, error) {
	s := c.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, err := c.aiService.InterpretUtterance(ctx, utterance, string(s.Mode))
	if err != nil {
		log.Printf("[Assistant] Intent interpretation failed for user %s: %v", userID, err)
		return c.reply(ctx, s, "לא הצלחתי להבין את הבקשה, אפשר לנסח אותה שוב?", nil)
	}

	// Cancellation wins from any state.
	if intent.Action == ai.ActionCancel {
		s.Draft = domain.Draft{}
		s.Mode = domain.ModeNeutral
		return c.reply(ctx, s, "בסדר, ביטלתי. במה עוד אפשר לעזור?", nil)
	}

	switch s.Mode {
	case domain.ModeSendCollecting, domain.ModeSendConfirming:
		return c.handleSendTurn(ctx, s, userID, intent)
	}

	switch intent.Action {
	case ai.ActionCompose:
		s.Mode = domain.ModeSendCollecting
		s.Draft = domain.Draft{}
		return c.handleSendTurn(ctx, s, userID, intent)
	case ai.ActionSearch, ai.ActionReadDetails, ai.ActionReadBody, ai.ActionDelete:
		s.Mode = domain.ModeRead
		return c.handleReadTurn(ctx, s, userID, intent)
	default:
		return c.reply(ctx, s, "אני יכול לחפש ולקרוא מיילים, או לנסח ולשלוח מייל חדש. מה תרצה לעשות?", nil)
	}
}

// handleReadTurn executes one mailbox read operation. The session stays in
// READ until the user cancels or switches to composing.
func (c *Controller) handleReadTurn(ctx context.Context, s *sessionState, userID string, intent *ai.Intent) (*domain.Reply, error) {
	mailbox, err := c.mailboxFor(ctx, userID)
	if err != nil {
		log.Printf("[Assistant] Mailbox unavailable for user %s: %v", userID, err)
		return c.reply(ctx, s, "אין לי כרגע גישה לתיבת המייל שלך. בדוק את חיבור חשבון Google ונסה שוב.", nil)
	}

	switch intent.Action {
	case ai.ActionSearch:
		var opts gmail.SearchOptions
		if intent.NextPage {
			if s.NextToken == "" {
				return c.reply(ctx, s, "אין עוד תוצאות לחיפוש הקודם.", nil)
			}
			opts = s.LastSearch
			opts.PageToken = s.NextToken
		} else {
			maxResults := intent.MaxResults
			if maxResults <= 0 {
				maxResults = gmail.DefaultMaxResults
			}
			opts = gmail.SearchOptions{
				Query:      intent.Query,
				Label:      intent.Label,
				MaxResults: maxResults,
				PageToken:  intent.PageToken,
			}
		}
		result, err := mailbox.Search(ctx, opts)
		if err != nil {
			return c.replyError(ctx, s, err)
		}
		s.LastSearch = opts
		s.NextToken = result.NextPageToken
		text := fmt.Sprintf("מצאתי %d הודעות.", result.Count)
		if result.Count == 0 {
			text = "לא מצאתי הודעות שמתאימות לחיפוש."
		}
		if len(result.Failed) > 0 {
			text += fmt.Sprintf(" %d הודעות לא נטענו בהצלחה.", len(result.Failed))
		}
		if result.NextPageToken != "" {
			text += " יש עוד תוצאות, אפשר לבקש את העמוד הבא."
		}
		return c.reply(ctx, s, text, result.Messages)

	case ai.ActionReadDetails:
		if intent.MessageID == "" {
			return c.reply(ctx, s, "איזו הודעה לפתוח? צריך את מזהה ההודעה.", nil)
		}
		msg, err := mailbox.GetMessageDetails(ctx, intent.MessageID)
		if err != nil {
			return c.replyError(ctx, s, err)
		}
		return c.reply(ctx, s, "הנה פרטי ההודעה.", []gmail.EmailMessage{*msg})

	case ai.ActionReadBody:
		if intent.MessageID == "" {
			return c.reply(ctx, s, "איזו הודעה לפתוח? צריך את מזהה ההודעה.", nil)
		}
		body, err := mailbox.GetMessageBody(ctx, intent.MessageID)
		if err != nil {
			return c.replyError(ctx, s, err)
		}
		return c.reply(ctx, s, "הנה תוכן ההודעה.", []gmail.EmailMessage{{MsgID: intent.MessageID, Body: body}})

	case ai.ActionDelete:
		if !c.allowDelete {
			return c.reply(ctx, s, "מחיקת הודעות כבויה בהגדרות המערכת.", nil)
		}
		if intent.MessageID == "" {
			return c.reply(ctx, s, "איזו הודעה למחוק? צריך את מזהה ההודעה.", nil)
		}
		if err := mailbox.Delete(ctx, intent.MessageID); err != nil {
			return c.replyError(ctx, s, err)
		}
		return c.reply(ctx, s, "ההודעה נמחקה.", nil)
	}

	return c.reply(ctx, s, "אפשר לחפש, לפתוח או למחוק הודעות. מה תרצה לעשות?", nil)
}

// handleSendTurn advances the send workflow by one turn: merge whatever draft
// fields the utterance supplied, then either ask for what is still missing,
// summarize and ask for confirmation, or send.
func (c *Controller) handleSendTurn(ctx context.Context, s *sessionState, userID string, intent *ai.Intent) (*domain.Reply, error) {
	edited := mergeDraft(&s.Draft, intent)
	if edited {
		// A field edit invalidates any prior confirmation.
		s.Draft.Confirmed = false
	}

	if missing := s.Draft.MissingFields(); len(missing) > 0 {
		s.Mode = domain.ModeSendCollecting
		return c.reply(ctx, s, "כדי לשלוח את המייל חסרים לי: "+strings.Join(fieldNames(missing), ", ")+".", nil)
	}

	if intent.Action == ai.ActionConfirm && s.Mode == domain.ModeSendConfirming && !edited {
		s.Draft.Confirmed = true
	}
	if s.Draft.Confirmed {
		return c.performSend(ctx, s, userID)
	}

	s.Mode = domain.ModeSendConfirming
	summary := fmt.Sprintf("הנה המייל שהכנתי:\nאל: %s\nנושא: %s\nתוכן: %s\nלאשר את השליחה?",
		*s.Draft.Recipient, *s.Draft.Subject, *s.Draft.Body)
	return c.reply(ctx, s, summary, nil)
}

func (c *Controller) performSend(ctx context.Context, s *sessionState, userID string) (*domain.Reply, error) {
	mailbox, err := c.mailboxFor(ctx, userID)
	if err != nil {
		log.Printf("[Assistant] Mailbox unavailable for user %s: %v", userID, err)
		return c.reply(ctx, s, "אין לי כרגע גישה לתיבת המייל שלך, אז המייל לא נשלח. נסה שוב עוד רגע.", nil)
	}

	msgID, err := mailbox.Send(ctx, gmail.OutgoingMessage{
		To:      *s.Draft.Recipient,
		Subject: *s.Draft.Subject,
		Body:    *s.Draft.Body,
	})
	if err != nil {
		// Draft survives a failed send so the user can retry or fix it,
		// but a retry needs a fresh confirmation.
		s.Draft.Confirmed = false
		log.Printf("[Assistant] Send failed for user %s: %v", userID, err)
		return c.reply(ctx, s, "השליחה נכשלה. אפשר לנסות לאשר שוב, לתקן את המייל או לבטל.", nil)
	}

	log.Printf("[Assistant] Sent message %s for user %s", msgID, userID)
	s.Draft = domain.Draft{}
	s.Mode = domain.ModeNeutral
	return c.reply(ctx, s, "המייל נשלח בהצלחה!", nil)
}

// mergeDraft copies the fields the utterance explicitly mentioned into the
// draft and reports whether anything changed.
func mergeDraft(draft *domain.Draft, intent *ai.Intent) bool {
	edited := false
	if intent.Recipient != nil {
		draft.Recipient = intent.Recipient
		edited = true
	}
	if intent.Subject != nil {
		draft.Subject = intent.Subject
		edited = true
	}
	if intent.Body != nil {
		draft.Body = intent.Body
		edited = true
	}
	return edited
}

func fieldNames(fields []string) []string {
	names := map[string]string{
		"recipient": "כתובת הנמען",
		"subject":   "נושא",
		"body":      "תוכן ההודעה",
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, names[f])
	}
	return out
}

// reply is the single exit point for user-facing text. It runs the style pass
// on the text before returning; structured message records ride alongside as
// data and are never styled.
func (c *Controller) reply(ctx context.Context, s *sessionState, text string, messages []gmail.EmailMessage) (*domain.Reply, error) {
	styled, err := c.aiService.RefineText(ctx, text)
	if err != nil {
		log.Printf("[Assistant] Style pass failed: %v", err)
		styled = text
	}
	return &domain.Reply{Text: styled, Mode: s.Mode, Messages: messages}, nil
}

// replyError turns a mailbox failure into a short, actionable styled message.
// The conversation stays in its current state.
func (c *Controller) replyError(ctx context.Context, s *sessionState, err error) (*domain.Reply, error) {
	log.Printf("[Assistant] Mailbox operation failed: %v", err)
	if statusErr, ok := err.(*gmail.StatusError); ok {
		switch statusErr.Status {
		case gmail.StatusServiceUnavailable:
			return c.reply(ctx, s, "אין לי כרגע גישה לתיבת המייל שלך. בדוק את חיבור חשבון Google ונסה שוב.", nil)
		case gmail.StatusMissingParameters:
			return c.reply(ctx, s, "חסר פרט בבקשה: "+statusErr.Message, nil)
		case gmail.StatusNotFound:
			return c.reply(ctx, s, "לא מצאתי את ההודעה הזאת. אולי היא נמחקה בינתיים.", nil)
		}
	}
	return c.reply(ctx, s, "משהו השתבש מול תיבת המייל. נסה שוב בעוד רגע.", nil)
}

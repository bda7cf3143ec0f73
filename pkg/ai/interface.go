package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Action is the interpreted goal of one user utterance.
type Action string

const (
	ActionSearch      Action = "search"
	ActionReadDetails Action = "read_details"
	ActionReadBody    Action = "read_body"
	ActionDelete      Action = "delete"
	ActionCompose     Action = "compose"
	ActionConfirm     Action = "confirm"
	ActionCancel      Action = "cancel"
	ActionOther       Action = "other"
)

// Intent is the structured reading of a user utterance. Draft fields are
// pointers so the controller can tell "not mentioned" from "set to empty".
type Intent struct {
	Action     Action  `json:"action"`
	Query      string  `json:"query,omitempty"`
	Label      string  `json:"label,omitempty"`
	MaxResults int     `json:"max_results,omitempty"`
	PageToken  string  `json:"page_token,omitempty"`
	NextPage   bool    `json:"next_page,omitempty"`
	MessageID  string  `json:"message_id,omitempty"`
	Recipient  *string `json:"recipient,omitempty"`
	Subject    *string `json:"subject,omitempty"`
	Body       *string `json:"body,omitempty"`
}

// Service is the language-model surface the assistant depends on. All three
// operations are opaque instructions+input → text calls; none of them takes
// actions on its own.
//
// RefineText is the style pass: it rewrites arbitrary text into the fixed
// target language and tone without adding or removing facts, and returns only
// the rewritten text.
type Service interface {
	InterpretUtterance(ctx context.Context, utterance, mode string) (*Intent, error)
	RefineText(ctx context.Context, text string) (string, error)
	SummarizeEmails(ctx context.Context, emailsText string) (string, error)
}

// ProviderType selects the AI backend.
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)

// parseIntent decodes a model reply into an Intent, tolerating markdown code
// fences around the JSON.
func parseIntent(raw string) (*Intent, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var intent Intent
	if err := json.Unmarshal([]byte(cleaned), &intent); err != nil {
		return nil, fmt.Errorf("failed to parse intent: %w", err)
	}
	if intent.Action == "" {
		intent.Action = ActionOther
	}
	return &intent, nil
}

package domain

import "mailbot-backend/pkg/gmail"

// Mode is the conversational state of one assistant session.
type Mode string

const (
	ModeNeutral        Mode = "NEUTRAL"
	ModeRead           Mode = "READ"
	ModeSendCollecting Mode = "SEND_COLLECTING"
	ModeSendConfirming Mode = "SEND_CONFIRMING"
)

// Draft is the partially collected outgoing email for one session. Fields are
// pointers so a merged utterance only overwrites what it actually mentioned.
type Draft struct {
	Recipient *string
	Subject   *string
	Body      *string
	Confirmed bool
}

// MissingFields lists the required fields the draft still lacks, in the fixed
// order recipient, subject, body.
func (d *Draft) MissingFields() []string {
	var missing []string
	if d.Recipient == nil || *d.Recipient == "" {
		missing = append(missing, "recipient")
	}
	if d.Subject == nil || *d.Subject == "" {
		missing = append(missing, "subject")
	}
	if d.Body == nil || *d.Body == "" {
		missing = append(missing, "body")
	}
	return missing
}

// Complete reports whether all three required fields are present.
func (d *Draft) Complete() bool {
	return len(d.MissingFields()) == 0
}

// Session holds everything the controller remembers about one conversation.
// LastSearch and NextToken let a "next page" follow-up continue the previous
// search without the user restating it.
type Session struct {
	Mode       Mode
	Draft      Draft
	LastSearch gmail.SearchOptions
	NextToken  string
}

// Reply is one assistant turn back to the user. Text has already been through
// the style pass; Messages are structured records passed through as data and
// never styled.
type Reply struct {
	Text     string               `json:"text"`
	Mode     Mode                 `json:"mode"`
	Messages []gmail.EmailMessage `json:"messages,omitempty"`
}

package gmail

// Mailbox labels accepted by Search. LabelAll disables the label filter.
const (
	LabelAll   = "ALL"
	LabelInbox = "INBOX"
	LabelSent  = "SENT"
	LabelDraft = "DRAFT"
	LabelSpam  = "SPAM"
	LabelTrash = "TRASH"
)

// EmailMessage is the structured message record handed to callers. The JSON
// field names are a contract consumed by downstream rendering; keep them
// stable field-for-field.
type EmailMessage struct {
	MsgID          string `json:"msg_id"`
	Subject        string `json:"subject"`
	Sender         string `json:"sender"`
	Recipients     string `json:"recipients"`
	Body           string `json:"body"`
	Snippet        string `json:"snippet"`
	HasAttachments bool   `json:"has_attachments"`
	Date           string `json:"date"`
	Star           bool   `json:"star"`
	Label          string `json:"label"`
}

// FetchFailure records one message that could not be fetched during a search.
// Failures are reported out-of-band so the data channel never carries error
// text.
type FetchFailure struct {
	MsgID string `json:"msg_id"`
	Error string `json:"error"`
}

// SearchResult is one page of search results. Count always equals
// len(Messages); NextPageToken is empty when the provider reported no
// further pages.
type SearchResult struct {
	Count         int            `json:"count"`
	Messages      []EmailMessage `json:"messages"`
	NextPageToken string         `json:"next_page_token,omitempty"`
	Failed        []FetchFailure `json:"failed,omitempty"`
}

// SearchOptions narrows a mailbox search.
type SearchOptions struct {
	Query      string
	Label      string // one of the Label constants; defaults to INBOX
	MaxResults int    // defaults to 10
	PageToken  string
}

// OutgoingMessage describes an email to send. Recipient, subject and body are
// required; BodyType is "plain" or "html"; attachments are local file paths.
type OutgoingMessage struct {
	To              string
	Subject         string
	Body            string
	BodyType        string
	AttachmentPaths []string
}

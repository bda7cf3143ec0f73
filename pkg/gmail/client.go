package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
)

// DefaultMaxResults is the search cap applied when the caller does not
// request one.
const DefaultMaxResults = 10

const maxPageSize = 500 // Gmail API maximum per list call

// Client wraps the provider API with the normalized search/detail/send
// operations the assistant consumes. All failures come back as *StatusError.
type Client struct {
	api providerAPI
}

// NewClient builds a client over a live Gmail service.
func NewClient(srv *gmailapi.Service) *Client {
	return &Client{api: &gmailAPI{srv: srv}}
}

func newClientWithAPI(api providerAPI) *Client {
	return &Client{api: api}
}

// Search lists messages matching the query and label filter, paging until the
// provider runs out of pages or the accumulated count reaches the cap, then
// fetches full details for each id. Per-message fetch errors are collected in
// Failed instead of aborting the batch.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	if c.api == nil {
		return nil, serviceUnavailable()
	}

	label := opts.Label
	if label == "" {
		label = LabelInbox
	}
	maxResults := opts.MaxResults
	if maxResults < 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults == 0 {
		return &SearchResult{Messages: []EmailMessage{}}, nil
	}

	var queryParts []string
	if opts.Query != "" {
		queryParts = append(queryParts, opts.Query)
	}
	if label != LabelAll {
		queryParts = append(queryParts, "label:"+strings.ToLower(label))
	}
	query := strings.Join(queryParts, " ")

	var ids []string
	pageToken := opts.PageToken
	for {
		pageSize := int64(maxResults - len(ids))
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
		resp, err := c.api.ListMessages(ctx, query, pageSize, pageToken)
		if err != nil {
			return nil, failed("An error occurred: %v", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" || len(ids) >= maxResults {
			break
		}
	}

	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}

	result := &SearchResult{
		Messages:      make([]EmailMessage, 0, len(ids)),
		NextPageToken: pageToken,
	}
	for _, id := range ids {
		msg, err := c.GetMessageDetails(ctx, id)
		if err != nil {
			result.Failed = append(result.Failed, FetchFailure{MsgID: id, Error: err.Error()})
			continue
		}
		result.Messages = append(result.Messages, *msg)
	}
	result.Count = len(result.Messages)

	return result, nil
}

// GetMessageDetails fetches one message and normalizes it into an
// EmailMessage record.
func (c *Client) GetMessageDetails(ctx context.Context, msgID string) (*EmailMessage, error) {
	if c.api == nil {
		return nil, serviceUnavailable()
	}

	message, err := c.api.GetMessage(ctx, msgID)
	if err != nil {
		return nil, providerError(err, "Error retrieving message: %v")
	}

	if message.Payload == nil {
		message.Payload = &gmailapi.MessagePart{}
	}
	headers := message.Payload.Headers
	labelIDs := message.LabelIds

	hasAttachments := false
	for _, part := range message.Payload.Parts {
		if part.Filename != "" {
			hasAttachments = true
			break
		}
	}

	star := false
	for _, id := range labelIDs {
		if id == "STARRED" {
			star = true
			break
		}
	}

	return &EmailMessage{
		MsgID:          msgID,
		Subject:        headerValue(headers, "Subject"),
		Sender:         headerValue(headers, "From"),
		Recipients:     headerValue(headers, "To"),
		Body:           extractBody(message.Payload),
		Snippet:        message.Snippet,
		HasAttachments: hasAttachments,
		Date:           headerValue(headers, "Date"),
		Star:           star,
		Label:          strings.Join(labelIDs, ", "),
	}, nil
}

// GetMessageBody fetches one message and returns only its plain-text body.
func (c *Client) GetMessageBody(ctx context.Context, msgID string) (string, error) {
	if c.api == nil {
		return "", serviceUnavailable()
	}

	message, err := c.api.GetMessage(ctx, msgID)
	if err != nil {
		return "", providerError(err, "Error retrieving message body: %v")
	}

	return extractBody(message.Payload), nil
}

// Delete permanently removes a message. Irreversible; any ask-before-delete
// policy belongs to the caller.
func (c *Client) Delete(ctx context.Context, msgID string) error {
	if c.api == nil {
		return serviceUnavailable()
	}

	if err := c.api.DeleteMessage(ctx, msgID); err != nil {
		return providerError(err, "An error occurred: %v")
	}
	return nil
}

// Send validates the outgoing message, builds the MIME envelope and submits
// it. Returns the provider-assigned message id.
func (c *Client) Send(ctx context.Context, msg OutgoingMessage) (string, error) {
	if c.api == nil {
		return "", serviceUnavailable()
	}

	// Required fields checked in a fixed order: recipient, subject, body.
	if msg.To == "" {
		return "", missingParameter("to", "Missing recipient email address. Please provide the recipient's email address")
	}
	if msg.Subject == "" {
		return "", missingParameter("subject", "Missing email subject. Please provide the email subject")
	}
	if msg.Body == "" {
		return "", missingParameter("body", "Missing email body. Please provide the email message content")
	}

	bodyType := strings.ToLower(msg.BodyType)
	if bodyType == "" {
		bodyType = "plain"
	}
	if bodyType != "plain" && bodyType != "html" {
		return "", failed(`body_type must be either "plain" or "html"`)
	}

	raw, err := buildRawMessage(msg, bodyType)
	if err != nil {
		return "", err
	}

	sent, err := c.api.SendMessage(ctx, raw)
	if err != nil {
		return "", failed("An error occurred: %v", err)
	}

	return sent.Id, nil
}

// buildRawMessage assembles the multipart MIME envelope and base64url-encodes
// it. A missing attachment path aborts the whole send; partial sends are
// never attempted.
func buildRawMessage(msg OutgoingMessage, bodyType string) (string, error) {
	var buf bytes.Buffer
	boundary := "mailbot_boundary"

	buf.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary))

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString(fmt.Sprintf("Content-Type: text/%s; charset=\"UTF-8\"\r\n\r\n", bodyType))
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")

	for _, path := range msg.AttachmentPaths {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", failed("File not found - %s", path)
		}
		filename := filepath.Base(path)
		encoded := base64.StdEncoding.EncodeToString(content)

		buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		buf.WriteString(fmt.Sprintf("Content-Type: application/octet-stream; name=%q\r\n", filename))
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n\r\n", filename))
		for i := 0; i < len(encoded); i += 76 {
			end := i + 76
			if end > len(encoded) {
				end = len(encoded)
			}
			buf.WriteString(encoded[i:end] + "\r\n")
		}
	}

	buf.WriteString(fmt.Sprintf("--%s--", boundary))

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

func headerValue(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// extractBody scans only the immediate child parts and takes the first exact
// text/plain part. No recursion into nested multiparts, no HTML fallback; an
// HTML-only message yields an empty body.
func extractBody(payload *gmailapi.MessagePart) string {
	if payload == nil {
		return ""
	}

	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
				return decodeBase64URL(part.Body.Data)
			}
		}
		return ""
	}

	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		return decodeBase64URL(payload.Body.Data)
	}
	return ""
}

func decodeBase64URL(data string) string {
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}

package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

type fakeAPI struct {
	pages       map[string]*gmailapi.ListMessagesResponse // pageToken -> page ("" is the first)
	messages    map[string]*gmailapi.Message
	listQueries []string
	listSizes   []int64
	getErr      map[string]error
	deleteErr   map[string]error
	deleted     []string
	sentRaw     []string
	sendErr     error
}

func (f *fakeAPI) ListMessages(_ context.Context, query string, maxResults int64, pageToken string) (*gmailapi.ListMessagesResponse, error) {
	f.listQueries = append(f.listQueries, query)
	f.listSizes = append(f.listSizes, maxResults)
	page, ok := f.pages[pageToken]
	if !ok {
		return &gmailapi.ListMessagesResponse{}, nil
	}
	return page, nil
}

func (f *fakeAPI) GetMessage(_ context.Context, id string) (*gmailapi.Message, error) {
	if err := f.getErr[id]; err != nil {
		return nil, err
	}
	if msg, ok := f.messages[id]; ok {
		return msg, nil
	}
	return nil, errors.New("404: not found")
}

func (f *fakeAPI) DeleteMessage(_ context.Context, id string) error {
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) SendMessage(_ context.Context, raw string) (*gmailapi.Message, error) {
	f.sentRaw = append(f.sentRaw, raw)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &gmailapi.Message{Id: "sent-1"}, nil
}

func encodeBody(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func plainMessage(id, subject, body string) *gmailapi.Message {
	return &gmailapi.Message{
		Id:       id,
		Snippet:  "snippet of " + id,
		LabelIds: []string{"INBOX"},
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "Subject", Value: subject},
				{Name: "From", Value: "sender@example.com"},
				{Name: "To", Value: "me@example.com"},
				{Name: "Date", Value: "Mon, 1 Sep 2026 09:00:00 +0000"},
			},
			Body: &gmailapi.MessagePartBody{Data: encodeBody(body)},
		},
	}
}

func newFakePages(ids []string, perPage int) map[string]*gmailapi.ListMessagesResponse {
	pages := map[string]*gmailapi.ListMessagesResponse{}
	token := ""
	for i := 0; i < len(ids); i += perPage {
		end := i + perPage
		if end > len(ids) {
			end = len(ids)
		}
		page := &gmailapi.ListMessagesResponse{}
		for _, id := range ids[i:end] {
			page.Messages = append(page.Messages, &gmailapi.Message{Id: id})
		}
		if end < len(ids) {
			page.NextPageToken = fmt.Sprintf("page-%d", end)
		}
		pages[token] = page
		token = page.NextPageToken
	}
	return pages
}

func TestSearchCapInvariant(t *testing.T) {
	ids := make([]string, 12)
	messages := map[string]*gmailapi.Message{}
	for i := range ids {
		ids[i] = fmt.Sprintf("m%d", i)
		messages[ids[i]] = plainMessage(ids[i], "Subject", "body")
	}

	for _, n := range []int{0, 1, 5, 12, 20} {
		api := &fakeAPI{pages: newFakePages(ids, 5), messages: messages}
		client := newClientWithAPI(api)

		result, err := client.Search(context.Background(), SearchOptions{MaxResults: n})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(result.Messages), n)
		assert.Equal(t, len(result.Messages), result.Count)
	}
}

func TestSearchDefaultsAndLabelQuery(t *testing.T) {
	api := &fakeAPI{
		pages:    newFakePages([]string{"m0"}, 5),
		messages: map[string]*gmailapi.Message{"m0": plainMessage("m0", "S", "B")},
	}
	client := newClientWithAPI(api)

	_, err := client.Search(context.Background(), SearchOptions{Query: "invoice", MaxResults: -1})
	require.NoError(t, err)
	require.Len(t, api.listQueries, 1)
	assert.Equal(t, "invoice label:inbox", api.listQueries[0])
	assert.Equal(t, int64(DefaultMaxResults), api.listSizes[0])

	// ALL drops the label filter entirely.
	api.listQueries = nil
	_, err = client.Search(context.Background(), SearchOptions{Query: "invoice", Label: LabelAll, MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, "invoice", api.listQueries[0])
}

func TestSearchZeroCapMakesNoCalls(t *testing.T) {
	api := &fakeAPI{pages: newFakePages([]string{"m0"}, 5)}
	client := newClientWithAPI(api)

	result, err := client.Search(context.Background(), SearchOptions{MaxResults: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.Empty(t, api.listQueries)
}

func TestSearchPaginatesUntilCap(t *testing.T) {
	ids := make([]string, 12)
	messages := map[string]*gmailapi.Message{}
	for i := range ids {
		ids[i] = fmt.Sprintf("m%d", i)
		messages[ids[i]] = plainMessage(ids[i], "S", "B")
	}
	api := &fakeAPI{pages: newFakePages(ids, 5), messages: messages}
	client := newClientWithAPI(api)

	result, err := client.Search(context.Background(), SearchOptions{MaxResults: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, result.Count)
	// Stopped after the second page; its token is reported for continuation.
	assert.Equal(t, "page-10", result.NextPageToken)
	assert.Equal(t, "m0", result.Messages[0].MsgID)
	assert.Equal(t, "m6", result.Messages[6].MsgID)
}

func TestSearchCollectsFetchFailures(t *testing.T) {
	api := &fakeAPI{
		pages: newFakePages([]string{"m0", "m1", "m2"}, 5),
		messages: map[string]*gmailapi.Message{
			"m0": plainMessage("m0", "S", "B"),
			"m2": plainMessage("m2", "S", "B"),
		},
		getErr: map[string]error{"m1": errors.New("backend error")},
	}
	client := newClientWithAPI(api)

	result, err := client.Search(context.Background(), SearchOptions{MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "m1", result.Failed[0].MsgID)
	assert.Contains(t, result.Failed[0].Error, "backend error")
}

func TestGetMessageDetailsIdempotent(t *testing.T) {
	msg := plainMessage("m0", "Quarterly report", "The numbers are in.")
	msg.LabelIds = []string{"INBOX", "STARRED"}
	msg.Payload.Parts = []*gmailapi.MessagePart{
		{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("The numbers are in.")}},
		{MimeType: "application/pdf", Filename: "report.pdf", Body: &gmailapi.MessagePartBody{}},
	}
	api := &fakeAPI{messages: map[string]*gmailapi.Message{"m0": msg}}
	client := newClientWithAPI(api)

	first, err := client.GetMessageDetails(context.Background(), "m0")
	require.NoError(t, err)
	second, err := client.GetMessageDetails(context.Background(), "m0")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, "Quarterly report", first.Subject)
	assert.Equal(t, "sender@example.com", first.Sender)
	assert.Equal(t, "The numbers are in.", first.Body)
	assert.True(t, first.HasAttachments)
	assert.True(t, first.Star)
	assert.Equal(t, "INBOX, STARRED", first.Label)
}

func TestBodyExtraction(t *testing.T) {
	htmlOnly := &gmailapi.Message{
		Id: "html",
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encodeBody("<p>hi</p>")}},
			},
		},
	}
	both := &gmailapi.Message{
		Id: "both",
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encodeBody("<p>hi</p>")}},
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("hi")}},
			},
		},
	}
	nested := &gmailapi.Message{
		Id: "nested",
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmailapi.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmailapi.MessagePart{
						{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("buried")}},
					},
				},
			},
		},
	}
	api := &fakeAPI{messages: map[string]*gmailapi.Message{"html": htmlOnly, "both": both, "nested": nested}}
	client := newClientWithAPI(api)
	ctx := context.Background()

	body, err := client.GetMessageBody(ctx, "html")
	require.NoError(t, err)
	assert.Equal(t, "", body)

	body, err = client.GetMessageBody(ctx, "both")
	require.NoError(t, err)
	assert.Equal(t, "hi", body)

	// Only immediate children are scanned; a plain part nested one level
	// deeper is not found.
	body, err = client.GetMessageBody(ctx, "nested")
	require.NoError(t, err)
	assert.Equal(t, "", body)
}

func TestSendMissingFieldOrder(t *testing.T) {
	client := newClientWithAPI(&fakeAPI{})
	ctx := context.Background()

	_, err := client.Send(ctx, OutgoingMessage{Subject: "S", Body: "B"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, StatusMissingParameters, statusErr.Status)
	assert.Equal(t, "to", statusErr.Field)

	_, err = client.Send(ctx, OutgoingMessage{To: "a@example.com", Body: "B"})
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "subject", statusErr.Field)

	_, err = client.Send(ctx, OutgoingMessage{To: "a@example.com", Subject: "S"})
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "body", statusErr.Field)
}

func TestSendBuildsDecodableEnvelope(t *testing.T) {
	api := &fakeAPI{}
	client := newClientWithAPI(api)

	id, err := client.Send(context.Background(), OutgoingMessage{
		To:      "dana@example.com",
		Subject: "Hello",
		Body:    "How are you?",
	})
	require.NoError(t, err)
	assert.Equal(t, "sent-1", id)
	require.Len(t, api.sentRaw, 1)

	decoded, err := base64.URLEncoding.DecodeString(api.sentRaw[0])
	require.NoError(t, err)
	mime := string(decoded)
	assert.Contains(t, mime, "To: dana@example.com")
	assert.Contains(t, mime, "Subject: Hello")
	assert.Contains(t, mime, "Content-Type: text/plain")
	assert.Contains(t, mime, "How are you?")
}

func TestSendInvalidBodyType(t *testing.T) {
	client := newClientWithAPI(&fakeAPI{})

	_, err := client.Send(context.Background(), OutgoingMessage{
		To: "a@example.com", Subject: "S", Body: "B", BodyType: "markdown",
	})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, StatusFailed, statusErr.Status)
}

func TestSendMissingAttachmentAbortsWholeSend(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(existing, []byte("attached"), 0o600))

	api := &fakeAPI{}
	client := newClientWithAPI(api)

	_, err := client.Send(context.Background(), OutgoingMessage{
		To: "a@example.com", Subject: "S", Body: "B",
		AttachmentPaths: []string{existing, filepath.Join(dir, "missing.txt")},
	})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, StatusFailed, statusErr.Status)
	assert.True(t, strings.HasPrefix(statusErr.Message, "File not found"))
	assert.Empty(t, api.sentRaw)
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{}
	client := newClientWithAPI(api)

	require.NoError(t, client.Delete(context.Background(), "m9"))
	assert.Equal(t, []string{"m9"}, api.deleted)
}

func TestProviderNotFoundIsTagged(t *testing.T) {
	notFound := &googleapi.Error{Code: 404, Message: "Requested entity was not found."}
	api := &fakeAPI{
		getErr:    map[string]error{"gone": notFound},
		deleteErr: map[string]error{"gone": notFound},
	}
	client := newClientWithAPI(api)
	ctx := context.Background()

	_, err := client.GetMessageDetails(ctx, "gone")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, StatusNotFound, statusErr.Status)

	_, err = client.GetMessageBody(ctx, "gone")
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, StatusNotFound, statusErr.Status)

	err = client.Delete(ctx, "gone")
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, StatusNotFound, statusErr.Status)
	assert.Empty(t, api.deleted)

	// Non-HTTP provider failures keep the generic tag.
	api.getErr["flaky"] = errors.New("transport reset")
	_, err = client.GetMessageDetails(ctx, "flaky")
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, StatusFailed, statusErr.Status)
}

func TestUnauthenticatedClientForUser(t *testing.T) {
	svc := NewService("id", "secret", "http://localhost/oauth/callback")

	_, err := svc.ClientForUser(context.Background(), "", "", nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, StatusServiceUnavailable, statusErr.Status)
}

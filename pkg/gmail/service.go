package gmail

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is called whenever the underlying OAuth token is refreshed
// so callers can persist the new access token.
type TokenUpdateFunc func(token *oauth2.Token) error

// Service builds per-user mailbox clients from stored OAuth tokens and
// handles the consent flow that acquires them.
type Service struct {
	clientID     string
	clientSecret string
	redirectURL  string
}

func NewService(clientID, clientSecret, redirectURL string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
	}
}

func (s *Service) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  s.redirectURL,
		Scopes:       []string{gmailapi.MailGoogleComScope},
		Endpoint:     google.Endpoint,
	}
}

// AuthCodeURL returns the consent-screen URL the user visits to grant
// mailbox access. Offline access with forced consent so a refresh token is
// always issued.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// ExchangeCode trades an authorization code from the consent redirect for
// access and refresh tokens.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			fmt.Printf("Failed to update token: %v\n", err)
		}
	}
	return t, nil
}

// ClientForUser creates a mailbox client backed by the user's tokens. An
// unusable credential pair yields a service_unavailable status error so the
// calling agent can report it instead of crashing.
func (s *Service) ClientForUser(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*Client, error) {
	if accessToken == "" && refreshToken == "" {
		return nil, serviceUnavailable()
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	wrappedSource := &notifyTokenSource{
		src:      s.oauthConfig().TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	httpClient := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, serviceUnavailable()
	}

	return NewClient(srv), nil
}

// providerAPI is the narrow Gmail surface the client needs. Tests substitute
// a fake; production wraps *gmailapi.Service.
type providerAPI interface {
	ListMessages(ctx context.Context, query string, maxResults int64, pageToken string) (*gmailapi.ListMessagesResponse, error)
	GetMessage(ctx context.Context, id string) (*gmailapi.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	SendMessage(ctx context.Context, raw string) (*gmailapi.Message, error)
}

type gmailAPI struct {
	srv *gmailapi.Service
}

func (g *gmailAPI) ListMessages(ctx context.Context, query string, maxResults int64, pageToken string) (*gmailapi.ListMessagesResponse, error) {
	call := g.srv.Users.Messages.List("me").MaxResults(maxResults)
	if query != "" {
		call = call.Q(query)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Context(ctx).Do()
}

func (g *gmailAPI) GetMessage(ctx context.Context, id string) (*gmailapi.Message, error) {
	return g.srv.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
}

func (g *gmailAPI) DeleteMessage(ctx context.Context, id string) error {
	return g.srv.Users.Messages.Delete("me", id).Context(ctx).Do()
}

func (g *gmailAPI) SendMessage(ctx context.Context, raw string) (*gmailapi.Message, error) {
	return g.srv.Users.Messages.Send("me", &gmailapi.Message{Raw: raw}).Context(ctx).Do()
}

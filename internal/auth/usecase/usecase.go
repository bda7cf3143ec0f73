package usecase

import (
	"context"

	authdomain "mailbot-backend/internal/auth/domain"
	authdto "mailbot-backend/internal/auth/dto"

	"golang.org/x/oauth2"
)

// GoogleAuthenticator runs the OAuth consent flow that yields mailbox
// credentials.
type GoogleAuthenticator interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}

// AuthUsecase handles login, registration, token lifecycle and linking a
// Google mailbox to the account.
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)
	GoogleAuthURL(userID string) string
	ConnectGoogle(ctx context.Context, userID, code string) error
}

package service

import (
	"context"

	"github.com/exotrack/exotrack-console/internal/api"
	"github.com/exotrack/exotrack-console/internal/domain"

	"go.uber.org/zap"
)

// AuthService drives the login/logout flow against /auth.
type AuthService struct {
	client *api.Client
	logger *zap.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(client *api.Client, logger *zap.Logger) *AuthService {
	return &AuthService{client: client, logger: logger}
}

// loginResponse is the raw /auth/login reply. It carries a partial user
// alongside the token; the full record comes from check-auth-status.
type loginResponse struct {
	ID       string      `json:"id"`
	FullName string      `json:"fullName"`
	Role     domain.Role `json:"role"`
	Token    string      `json:"token"`
}

// Login exchanges credentials for a session. The token is stored on the
// client BEFORE the current-user fetch: that second call is itself an
// authenticated request and would 401 without it.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var resp loginResponse
	if err := s.client.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &domain.APIError{Message: "login response carried no token", Status: 0}
	}

	if err := s.client.SetAuthToken(resp.Token); err != nil {
		return nil, err
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("logged in",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return &domain.AuthResult{User: user, Token: resp.Token}, nil
}

// Register self-registers a new customer account. It does not log the new
// account in; callers follow up with Login when they want a session.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	var user domain.User
	if err := s.client.Post(ctx, "/auth/register", req, &user); err != nil {
		return nil, err
	}
	s.logger.Info("registered", zap.String("user_id", user.ID))
	return &user, nil
}

// CurrentUser fetches the account behind the stored token.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := s.client.Get(ctx, "/auth/check-auth-status", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout notifies the backend (best effort) and drops the stored token.
// A failed server-side logout never blocks the local teardown.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.client.Post(ctx, "/auth/logout", nil, nil); err != nil {
		s.logger.Debug("server-side logout failed", zap.Error(err))
	}
	return s.client.ClearAuthToken()
}

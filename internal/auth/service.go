// Package auth signs the salesman in and out and answers questions about the
// cached session.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/salesonboard/internal/domain"
	"github.com/utafrali/salesonboard/internal/session"
	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/httpclient"
	"github.com/utafrali/salesonboard/pkg/logger"
)

const loginEndpoint = "/auth/login"

// Credentials is the login form. Role defaults to the configured login role.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResponse is the body of a successful POST /auth/login.
type LoginResponse struct {
	Token        string       `json:"token"`
	User         *domain.User `json:"user"`
	RefreshToken string       `json:"refreshToken,omitempty"`
}

// Service is the auth session manager.
type Service struct {
	client   *httpclient.Client
	sessions *session.Repository
	role     string
	logger   *slog.Logger
}

// NewService creates an auth service. An empty role means DefaultLoginRole.
func NewService(client *httpclient.Client, sessions *session.Repository, role string, logger *slog.Logger) *Service {
	if role == "" {
		role = domain.DefaultLoginRole
	}
	return &Service{client: client, sessions: sessions, role: role, logger: logger}
}

// NormalizeUsername trims the username and lower-cases it when it looks like
// an email address. Plain usernames keep their case.
func NormalizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if strings.Contains(username, "@") {
		return strings.ToLower(username)
	}
	return username
}

// Login authenticates and stores token, user and company id as one unit.
// Nothing is written when the call or the response is unusable.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	creds.Username = NormalizeUsername(creds.Username)
	if creds.Role == "" {
		creds.Role = s.role
	}

	resp, err := httpclient.Send[LoginResponse](ctx, s.client, httpclient.Request{
		Method:    http.MethodPost,
		Endpoint:  loginEndpoint,
		Body:      creds,
		Operation: "auth.login",
	}).Unwrap()
	if err != nil {
		s.logger.DebugContext(ctx, "login rejected",
			slog.String("username", creds.Username),
			slog.String("code", apperrors.CodeOf(err)),
		)
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, apperrors.New(apperrors.CodeParse, "Login response is missing token or user")
	}

	if err := s.sessions.Save(ctx, &session.Session{
		AuthToken:    resp.Token,
		User:         resp.User,
		CompanyID:    resp.User.CompanyID,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		return nil, err
	}

	ctx = logger.WithUserID(ctx, resp.User.ID)
	logger.WithContext(ctx, s.logger).Info("logged in", slog.String("role", resp.User.Role))
	return resp, nil
}

// Logout clears the session. Storage failures are logged, never returned.
func (s *Service) Logout(ctx context.Context) {
	if err := s.sessions.Clear(ctx); err != nil {
		s.logger.WarnContext(ctx, "clear session", slog.String("error", err.Error()))
	}
}

// CurrentUser returns the cached user, or nil when it is missing or unreadable.
func (s *Service) CurrentUser(ctx context.Context) *domain.User {
	u, err := s.sessions.User(ctx)
	if err != nil {
		s.logger.DebugContext(ctx, "read cached user", slog.String("error", err.Error()))
		return nil
	}
	return u
}

// IsAuthenticated reports whether a token is cached. The token is not
// checked against the server.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	token, err := s.sessions.Token(ctx)
	return err == nil && token != ""
}

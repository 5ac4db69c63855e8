package mockserver

import (
	"context"
	"fmt"
	"time"

	pkgerrors "playground/pkg/errors"
)

// Session is the token pair handed out on login and refresh.
type Session struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService implements the mock backend's auth flows.
type AuthService struct {
	users   *UserDirectory
	tokens  *TokenIssuer
	revoked RevocationStore
}

func NewAuthService(cfg AuthConfig, revoked RevocationStore) (*AuthService, error) {
	cfg.ApplyDefaults()
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwtSecret is required")
	}
	if revoked == nil {
		revoked = NewMemoryRevocationStore(0)
	}
	users, err := NewUserDirectory(cfg.Users)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:   users,
		tokens:  NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		revoked: revoked,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		return Session{}, pkgerrors.New(pkgerrors.RequiredFieldEmpty).
			WithMessage("Username and password are required")
	}
	user, err := s.users.Authenticate(username, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(user.Username)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked so each refresh token is accepted once.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	claims, err := s.tokens.Parse(raw, refreshToken)
	if err != nil {
		return Session{}, err
	}
	if _, err := s.users.Lookup(claims.Subject); err != nil {
		return Session{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	revoked, err := s.revoked.RevokeIfAbsent(ctx, hashToken(raw), time.Until(claims.ExpiresAt.Time))
	if err != nil {
		return Session{}, pkgerrors.Wrap(err, pkgerrors.ServiceUnavailable)
	}
	if !revoked {
		return Session{}, pkgerrors.New(pkgerrors.TokenRevoked)
	}
	return s.issueSession(claims.Subject)
}

// Logout revokes raw when it is a valid refresh token. Missing or invalid
// tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	claims, err := s.tokens.Parse(raw, refreshToken)
	if err != nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, hashToken(raw), time.Until(claims.ExpiresAt.Time)); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ServiceUnavailable)
	}
	return nil
}

// Authenticate resolves the user behind an access token.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*User, error) {
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.Unauthorized)
	}
	claims, err := s.tokens.Parse(raw, accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Lookup(claims.Subject)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return user, nil
}

func (s *AuthService) AccessCodes(ctx context.Context, username string) ([]string, error) {
	user, err := s.users.Lookup(username)
	if err != nil {
		return nil, err
	}
	codes := make([]string, len(user.Codes))
	copy(codes, user.Codes)
	return codes, nil
}

func (s *AuthService) issueSession(username string) (Session, error) {
	access, err := s.tokens.IssueAccess(username)
	if err != nil {
		return Session{}, err
	}
	refresh, expiresAt, err := s.tokens.IssueRefresh(username)
	if err != nil {
		return Session{}, err
	}
	return Session{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: expiresAt}, nil
}

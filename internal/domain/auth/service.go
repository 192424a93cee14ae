package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type AccountStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (Account, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Service struct {
	store  AccountStore
	secret string
	ttl    time.Duration
	Now    func() time.Time
}

func NewService(store AccountStore, secret string, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, Now: time.Now}
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
}

// Login checks the password and issues a signed token. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, err := s.store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if err := CheckPassword(account.PasswordHash, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	now := s.Now()
	token, err := GenerateToken(s.secret, Claims{UserID: account.ID, Role: account.Role}, now, s.ttl)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, account.ID); err != nil {
		slog.Warn("update last_login failed", "userId", account.ID, "err", err)
	}
	return Session{Token: token, ExpiresAt: now.Add(s.ttl), UserID: account.ID, Role: account.Role}, nil
}

func (s *Service) Verify(token string) (*Claims, error) {
	return ParseToken(s.secret, token)
}

package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"crewdesk/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type Account struct {
	ID           string
	Email        string
	Role         string
	PasswordHash string
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (Account, error) {
	var out Account
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, role, password_hash
    FROM users
    WHERE lower(email) = lower($1) AND is_active
  `, email).Scan(&out.ID, &out.Email, &out.Role, &out.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrInvalidCredentials
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

// CreateAccount inserts a user and returns its id.
func (s *Store) CreateAccount(ctx context.Context, email, firstName, lastName, role, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, first_name, last_name, role, password_hash)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, email, firstName, lastName, role, passwordHash).Scan(&id)
	if querier.UniqueViolation(err) {
		return "", ErrEmailTaken
	}
	return id, err
}

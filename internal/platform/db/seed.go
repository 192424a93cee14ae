package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"crewdesk/internal/domain/auth"
	"crewdesk/internal/domain/pricing"
	"crewdesk/internal/domain/staffing"
)

type AccountSeeder interface {
	CreateAccount(ctx context.Context, email, firstName, lastName, role, passwordHash string) (string, error)
}

type SettingsSeeder interface {
	Settings(ctx context.Context) (pricing.Settings, bool, error)
	PutSettings(ctx context.Context, settings pricing.Settings) error
}

// Seed creates the first admin account and the initial salary settings.
// Both steps leave existing data untouched.
func Seed(ctx context.Context, accounts AccountSeeder, settings SettingsSeeder, adminEmail, adminPassword string, defaults pricing.Settings) error {
	if err := ensureAdminUser(ctx, accounts, adminEmail, adminPassword); err != nil {
		return err
	}
	return ensureSalarySettings(ctx, settings, defaults)
}

func ensureAdminUser(ctx context.Context, accounts AccountSeeder, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	id, err := accounts.CreateAccount(ctx, email, "Admin", "", staffing.RoleAdmin, hash)
	if errors.Is(err, auth.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("seeded admin account", "userId", id)
	return nil
}

func ensureSalarySettings(ctx context.Context, store SettingsSeeder, defaults pricing.Settings) error {
	_, found, err := store.Settings(ctx)
	if err != nil || found {
		return err
	}
	return store.PutSettings(ctx, defaults)
}

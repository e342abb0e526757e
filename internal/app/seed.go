package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/vaultpay/card-service/internal/domain"
	"github.com/vaultpay/card-service/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdminUser creates the configured administrator account if it does not
// exist yet. Called once at startup; a no-op when the account is present or
// no credentials are configured.
func (s *Service) EnsureAdminUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := s.repo.FindUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Enabled:      true,
	}
	if err := s.repo.CreateUser(ctx, admin); err != nil {
		// Another replica may have seeded the same account first.
		if errors.Is(err, store.ErrDuplicateUsername) {
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("level=info component=card_service msg=\"admin user seeded\" username=%s", username)
	return nil
}

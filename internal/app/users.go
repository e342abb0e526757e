/**
 * @description
 * User management: self-service signup, profile lookup, and the
 * administrative user surface (listing, lookup, deletion). Deleting a user is
 * refused while they still hold an ACTIVE card; the card must be blocked or
 * deleted first.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/vaultpay/card-service/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Signup registers a new enabled USER account. A taken username fails with
// store.ErrDuplicateUsername.
func (s *Service) Signup(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Enabled:      true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("level=info component=card_service msg=\"user signed up\" user_id=%s username=%s", user.ID, username)
	return user, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	return user, nil
}

// ListUsers returns users with optional enabled filtering, for administrators.
func (s *Service) ListUsers(ctx context.Context, opts domain.UserListOptions) ([]domain.User, error) {
	return s.repo.ListUsers(ctx, opts)
}

// DeleteUser removes a user account, for administrators. A user who still
// holds an ACTIVE card cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return fmt.Errorf("user %s: %w", userID, err)
	}

	hasActive, err := s.repo.UserHasCardWithStatus(ctx, userID, domain.CardStatusActive)
	if err != nil {
		return err
	}
	if hasActive {
		return fmt.Errorf("user %s: %w", userID, ErrUserHasActiveCards)
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("user %s: %w", userID, err)
	}

	log.Printf("level=info component=card_service msg=\"user deleted\" user_id=%s", userID)
	return nil
}

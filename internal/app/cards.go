/**
 * @description
 * Card queries and administrative card issuance. Read paths go through the
 * Redis card cache where one is configured; every card returned here carries
 * the masked number only.
 */

package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/card-service/internal/domain"
	"github.com/vaultpay/card-service/internal/store"
)

const cardNumberLength = 16

// IssueCard creates a new ACTIVE card with a zero balance for the given user.
// The generated number is encrypted by the store; the returned card is masked.
func (s *Service) IssueCard(ctx context.Context, ownerID uuid.UUID) (*domain.Card, error) {
	exists, err := s.repo.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("user %s: %w", ownerID, store.ErrUserNotFound)
	}

	number, err := generateCardNumber()
	if err != nil {
		return nil, fmt.Errorf("failed to generate card number: %w", err)
	}

	card := &domain.Card{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Status:         domain.CardStatusActive,
		ExpirationDate: time.Now().UTC().AddDate(s.cardExpiryYears, 0, 0),
		Balance:        decimal.Zero,
	}

	saved, err := s.repo.CreateCard(ctx, card, number)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	log.Printf("level=info component=card_service msg=\"card issued\" card_id=%s owner_id=%s", saved.ID, ownerID)
	return saved, nil
}

// GetCard returns a card by id without an ownership check, for administrators.
func (s *Service) GetCard(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	if card, ok := s.cardCache.Get(ctx, cardID); ok {
		return card, nil
	}

	card, err := s.repo.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", cardID, err)
	}
	s.cardCache.Set(ctx, card)
	return card, nil
}

// GetUserCard returns one of the user's cards, refusing cards that belong to
// someone else.
func (s *Service) GetUserCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.OwnerID != userID {
		return nil, fmt.Errorf("card %s, user %s: %w", cardID, userID, ErrInvalidOwnership)
	}
	return card, nil
}

// GetUserCardBalance returns the balance of one of the user's ACTIVE cards.
func (s *Service) GetUserCardBalance(ctx context.Context, userID, cardID uuid.UUID) (decimal.Decimal, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if !exists {
		return decimal.Zero, fmt.Errorf("user %s: %w", userID, store.ErrUserNotFound)
	}

	card, err := s.repo.FindCardByIDAndStatus(ctx, cardID, domain.CardStatusActive)
	if err != nil {
		return decimal.Zero, fmt.Errorf("active card %s: %w", cardID, err)
	}
	if card.OwnerID != userID {
		return decimal.Zero, fmt.Errorf("card %s, user %s: %w", cardID, userID, ErrInvalidOwnership)
	}
	return card.Balance, nil
}

// ListUserCards returns the user's own cards with optional status filtering.
func (s *Service) ListUserCards(ctx context.Context, userID uuid.UUID, opts domain.CardListOptions) ([]domain.Card, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("user %s: %w", userID, store.ErrUserNotFound)
	}

	opts.OwnerID = &userID
	return s.repo.ListCards(ctx, opts)
}

// ListCards returns cards across all users, for administrators.
func (s *Service) ListCards(ctx context.Context, opts domain.CardListOptions) ([]domain.Card, error) {
	return s.repo.ListCards(ctx, opts)
}

// generateCardNumber produces a random sixteen-digit card number.
func generateCardNumber() (string, error) {
	raw := make([]byte, cardNumberLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, b := range raw {
		builder.WriteByte(b%10 + '0')
	}
	return builder.String(), nil
}

/**
 * @description
 * Status-change request ledger. A card holder cannot block a card directly;
 * they file a block request that an administrator actions later. The
 * (card_id) uniqueness constraint in the store enforces at most one
 * outstanding request per card.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vaultpay/card-service/internal/domain"
	"github.com/vaultpay/card-service/internal/store"
)

// RequestBlock files a request to block one of the user's cards. The card
// must exist, belong to the user, and be ACTIVE. A second outstanding request
// for the same card fails with store.ErrDuplicateRequest.
func (s *Service) RequestBlock(ctx context.Context, userID, cardID uuid.UUID) (*domain.BlockRequestReceipt, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("user %s: %w", userID, store.ErrUserNotFound)
	}

	card, err := s.repo.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", cardID, err)
	}
	if card.OwnerID != userID {
		return nil, fmt.Errorf("card %s, user %s: %w", cardID, userID, ErrInvalidOwnership)
	}
	if card.Status != domain.CardStatusActive {
		return nil, fmt.Errorf("cannot request block for card %s in status %s: %w", cardID, card.Status, ErrInvalidState)
	}

	saved, err := s.repo.CreateStatusChangeRequest(ctx, &domain.StatusChangeRequest{
		ID:        uuid.New(),
		CardID:    cardID,
		OwnerID:   userID,
		Operation: domain.OperationBlock,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=card_service msg=\"block request filed\" card_id=%s owner_id=%s", cardID, userID)
	s.publishEvent(ctx, "card.block_requested", cardStatusEvent{
		CardID:    cardID,
		Operation: domain.OperationBlock,
		Timestamp: time.Now().UTC(),
	})

	return &domain.BlockRequestReceipt{
		CardID:  saved.CardID,
		OwnerID: saved.OwnerID,
		Message: "Block request submitted for review.",
	}, nil
}

// ListBlockRequests returns outstanding status-change requests for
// administrative review.
func (s *Service) ListBlockRequests(ctx context.Context, opts domain.RequestListOptions) ([]domain.StatusChangeRequest, error) {
	return s.repo.ListStatusChangeRequests(ctx, opts)
}

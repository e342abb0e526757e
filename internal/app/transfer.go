/**
 * @description
 * Funds transfer engine. Moves a positive amount between two cards owned by
 * the same user as one atomic unit of work under row-level pessimistic
 * locking.
 *
 * Both cards are locked before any validation runs, so no interleaving of two
 * transfers can act on a stale balance or status for either card. Locks are
 * always acquired in ascending card-id order; two transfers running in
 * opposite directions between the same pair of cards therefore contend on the
 * same first lock instead of deadlocking.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/card-service/internal/domain"
	"github.com/vaultpay/card-service/internal/store"
)

// Transfer moves amount from the source card to the destination card. Both
// cards must exist, be ACTIVE, and belong to userID, and the source must hold
// at least amount. On success it returns a receipt with both post-transfer
// balances; on any failure the unit of work is rolled back and no balance
// changes.
func (s *Service) Transfer(ctx context.Context, userID, fromCardID, toCardID uuid.UUID, amount decimal.Decimal) (*domain.TransferReceipt, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount %s: %w", amount, ErrInvalidAmount)
	}

	var receipt *domain.TransferReceipt
	err := s.repo.InTransaction(ctx, func(tx store.TxRepository) error {
		source, dest, err := lockCardPair(ctx, tx, fromCardID, toCardID)
		if err != nil {
			return err
		}

		if source.Status != domain.CardStatusActive || dest.Status != domain.CardStatusActive {
			return fmt.Errorf("transfer between cards %s (%s) and %s (%s): %w",
				source.ID, source.Status, dest.ID, dest.Status, ErrInvalidState)
		}

		exists, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("user %s: %w", userID, store.ErrUserNotFound)
		}
		for _, cardID := range []uuid.UUID{fromCardID, toCardID} {
			owns, err := tx.UserOwnsCard(ctx, userID, cardID)
			if err != nil {
				return err
			}
			if !owns {
				return fmt.Errorf("card %s, user %s: %w", cardID, userID, ErrInvalidOwnership)
			}
		}

		if source.Balance.LessThan(amount) {
			return fmt.Errorf("card %s holds %s, requested %s: %w",
				source.ID, source.Balance, amount, ErrInsufficientFunds)
		}

		// Source and destination may be the same card; the debit and credit
		// then cancel out and a single write keeps the balance unchanged.
		newSourceBalance := source.Balance.Sub(amount)
		newDestBalance := dest.Balance.Add(amount)
		if source.ID == dest.ID {
			newSourceBalance = source.Balance
			newDestBalance = source.Balance
			if err := tx.UpdateCardBalance(ctx, source.ID, newSourceBalance); err != nil {
				return err
			}
		} else {
			if err := tx.UpdateCardBalance(ctx, source.ID, newSourceBalance); err != nil {
				return err
			}
			if err := tx.UpdateCardBalance(ctx, dest.ID, newDestBalance); err != nil {
				return err
			}
		}

		receipt = &domain.TransferReceipt{
			Timestamp:       time.Now().UTC(),
			FromCardNumber:  source.Number,
			ToCardNumber:    dest.Number,
			Amount:          amount,
			FromCardBalance: newSourceBalance,
			ToCardBalance:   newDestBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cardCache.Invalidate(ctx, fromCardID)
	s.cardCache.Invalidate(ctx, toCardID)
	log.Printf("level=info component=card_service msg=\"transfer completed\" user_id=%s from_card=%s to_card=%s amount=%s",
		userID, fromCardID, toCardID, amount)
	s.publishEvent(ctx, "transfer.completed", transferEvent{
		UserID:     userID,
		FromCardID: fromCardID,
		ToCardID:   toCardID,
		Amount:     amount,
		Timestamp:  receipt.Timestamp,
	})

	return receipt, nil
}

// lockCardPair acquires row locks on both cards in ascending id order and
// returns them as (source, dest) regardless of which was locked first.
func lockCardPair(ctx context.Context, tx store.TxRepository, fromCardID, toCardID uuid.UUID) (*domain.Card, *domain.Card, error) {
	first, second := fromCardID, toCardID
	if second.String() < first.String() {
		first, second = second, first
	}

	firstCard, err := tx.FindCardByIDForUpdate(ctx, first)
	if err != nil {
		return nil, nil, fmt.Errorf("card %s: %w", first, err)
	}

	var secondCard *domain.Card
	if second == first {
		secondCard = firstCard
	} else {
		secondCard, err = tx.FindCardByIDForUpdate(ctx, second)
		if err != nil {
			return nil, nil, fmt.Errorf("card %s: %w", second, err)
		}
	}

	if firstCard.ID == fromCardID {
		return firstCard, secondCard, nil
	}
	return secondCard, firstCard, nil
}

// transferEvent is the payload published after a successful transfer.
type transferEvent struct {
	UserID     uuid.UUID       `json:"user_id"`
	FromCardID uuid.UUID       `json:"from_card_id"`
	ToCardID   uuid.UUID       `json:"to_card_id"`
	Amount     decimal.Decimal `json:"amount"`
	Timestamp  time.Time       `json:"timestamp"`
}

/**
 * @description
 * Card lifecycle state machine and operation dispatcher. Each operation
 * handler validates one permitted transition and applies its side effect
 * (status write, or hard removal for DEEP_DELETE) inside the same unit of
 * work as the validation.
 *
 * Permitted transitions:
 *
 *   ACTIVATE:    BLOCKED, EXPIRED          -> ACTIVE
 *   BLOCK:       ACTIVE                    -> BLOCKED
 *   DELETE:      any status except DELETED -> DELETED
 *   DEEP_DELETE: any status except BLOCKED -> row removed
 *
 * A DELETED card can still be deep-deleted, and an EXPIRED card can be
 * deep-deleted without being soft-deleted first; DEEP_DELETE is gated only on
 * BLOCKED so a card under a block workflow cannot be destroyed.
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

// operationHandler validates and applies one card lifecycle transition. The
// handler mutates the passed card in place to reflect the applied transition;
// removed reports whether the card no longer exists afterwards.
type operationHandler interface {
	Operation() domain.CardOperation
	Handle(ctx context.Context, tx store.TxRepository, card *domain.Card) (removed bool, err error)
}

// buildOperationTable registers every operation handler. The returned map is
// treated as immutable for the life of the service.
func buildOperationTable() map[domain.CardOperation]operationHandler {
	handlers := []operationHandler{
		activateHandler{},
		blockHandler{},
		softDeleteHandler{},
		deepDeleteHandler{},
	}

	table := make(map[domain.CardOperation]operationHandler, len(handlers))
	for _, h := range handlers {
		table[h.Operation()] = h
	}
	return table
}

type activateHandler struct{}

func (activateHandler) Operation() domain.CardOperation { return domain.OperationActivate }

func (activateHandler) Handle(ctx context.Context, tx store.TxRepository, card *domain.Card) (bool, error) {
	if card.Status == domain.CardStatusActive || card.Status == domain.CardStatusDeleted {
		return false, fmt.Errorf("cannot activate card %s from status %s: %w", card.ID, card.Status, ErrInvalidState)
	}
	if err := tx.UpdateCardStatus(ctx, card.ID, domain.CardStatusActive); err != nil {
		return false, err
	}
	card.Status = domain.CardStatusActive
	return false, nil
}

type blockHandler struct{}

func (blockHandler) Operation() domain.CardOperation { return domain.OperationBlock }

func (blockHandler) Handle(ctx context.Context, tx store.TxRepository, card *domain.Card) (bool, error) {
	if card.Status != domain.CardStatusActive {
		return false, fmt.Errorf("cannot block card %s from status %s: %w", card.ID, card.Status, ErrInvalidState)
	}
	if err := tx.UpdateCardStatus(ctx, card.ID, domain.CardStatusBlocked); err != nil {
		return false, err
	}
	card.Status = domain.CardStatusBlocked
	return false, nil
}

type softDeleteHandler struct{}

func (softDeleteHandler) Operation() domain.CardOperation { return domain.OperationDelete }

func (softDeleteHandler) Handle(ctx context.Context, tx store.TxRepository, card *domain.Card) (bool, error) {
	if card.Status == domain.CardStatusDeleted {
		return false, fmt.Errorf("cannot delete card %s: already deleted: %w", card.ID, ErrInvalidState)
	}
	if err := tx.UpdateCardStatus(ctx, card.ID, domain.CardStatusDeleted); err != nil {
		return false, err
	}
	card.Status = domain.CardStatusDeleted
	return false, nil
}

type deepDeleteHandler struct{}

func (deepDeleteHandler) Operation() domain.CardOperation { return domain.OperationDeepDelete }

func (deepDeleteHandler) Handle(ctx context.Context, tx store.TxRepository, card *domain.Card) (bool, error) {
	if card.Status == domain.CardStatusBlocked {
		return false, fmt.Errorf("cannot deep-delete card %s while blocked: %w", card.ID, ErrInvalidState)
	}
	if err := tx.DeleteCard(ctx, card.ID); err != nil {
		return false, err
	}
	return true, nil
}

// PerformOperation dispatches a lifecycle operation to its registered handler
// and applies it atomically. It returns the card's post-operation projection,
// or nil when the operation removed the card.
func (s *Service) PerformOperation(ctx context.Context, cardID uuid.UUID, op domain.CardOperation) (*domain.Card, error) {
	handler, ok := s.operations[op]
	if !ok {
		return nil, fmt.Errorf("operation %q: %w", op, ErrUnsupportedOperation)
	}

	var (
		card    *domain.Card
		removed bool
	)
	err := s.repo.InTransaction(ctx, func(tx store.TxRepository) error {
		var err error
		card, err = tx.FindCardByID(ctx, cardID)
		if err != nil {
			return err
		}
		removed, err = handler.Handle(ctx, tx, card)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cardCache.Invalidate(ctx, cardID)
	log.Printf("level=info component=card_service msg=\"card operation applied\" card_id=%s operation=%s removed=%t", cardID, op, removed)

	if removed {
		s.publishEvent(ctx, "card.deleted", cardStatusEvent{CardID: cardID, Operation: op, Timestamp: time.Now().UTC()})
		return nil, nil
	}
	s.publishEvent(ctx, "card.status_changed", cardStatusEvent{
		CardID:    cardID,
		Operation: op,
		Status:    card.Status,
		Timestamp: time.Now().UTC(),
	})
	return card, nil
}

// cardStatusEvent is the payload published when a card's lifecycle changes.
type cardStatusEvent struct {
	CardID    uuid.UUID            `json:"card_id"`
	Operation domain.CardOperation `json:"operation"`
	Status    domain.CardStatus    `json:"status,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

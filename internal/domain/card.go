/**
 * @description
 * This file defines the core domain models for the card-service. These structs
 * represent the main entities and data transfer objects (DTOs) used throughout
 * the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Balances and transfer amounts use `decimal.Decimal` so that currency values
 *   are never subject to floating-point rounding.
 * - Card numbers never leave the storage boundary in the clear: every card the
 *   repository returns carries the masked rendering only.
 */

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle state of a card.
type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
	CardStatusDeleted CardStatus = "DELETED"
	CardStatusExpired CardStatus = "EXPIRED"
)

var validCardStatuses = map[CardStatus]bool{
	CardStatusActive:  true,
	CardStatusBlocked: true,
	CardStatusDeleted: true,
	CardStatusExpired: true,
}

// ParseCardStatus validates a raw string as a CardStatus.
func ParseCardStatus(s string) (CardStatus, error) {
	status := CardStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !validCardStatuses[status] {
		return "", fmt.Errorf("invalid card status %q", s)
	}
	return status, nil
}

func (s CardStatus) String() string { return string(s) }

// CardOperation identifies a lifecycle operation that can be performed on a card.
type CardOperation string

const (
	OperationActivate   CardOperation = "ACTIVATE"
	OperationBlock      CardOperation = "BLOCK"
	OperationDelete     CardOperation = "DELETE"
	OperationDeepDelete CardOperation = "DEEP_DELETE"
)

var validCardOperations = map[CardOperation]bool{
	OperationActivate:   true,
	OperationBlock:      true,
	OperationDelete:     true,
	OperationDeepDelete: true,
}

// ParseCardOperation validates a raw string as a CardOperation.
func ParseCardOperation(s string) (CardOperation, error) {
	op := CardOperation(strings.ToUpper(strings.TrimSpace(s)))
	if !validCardOperations[op] {
		return "", fmt.Errorf("invalid card operation %q", s)
	}
	return op, nil
}

func (o CardOperation) String() string { return string(o) }

// Card represents a bank card belonging to exactly one user. The `Number`
// field always holds the masked rendering (`**** **** **** 1234`); the clear
// sixteen-digit value exists only inside the storage encryption boundary.
type Card struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"number"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	Status         CardStatus      `json:"status"`
	ExpirationDate time.Time       `json:"expiration_date"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// MaskCardNumber renders a card number with only the last four digits visible.
func MaskCardNumber(number string) string {
	digits := strings.ReplaceAll(number, " ", "")
	if len(digits) < 4 {
		return "****"
	}
	return "**** **** **** " + digits[len(digits)-4:]
}

// CardListOptions controls filtering and pagination for card listings.
type CardListOptions struct {
	OwnerID        *uuid.UUID
	Status         *CardStatus
	ExpirationDate *time.Time
	Limit          int
	Offset         int
}

// TransferRequest is the DTO for incoming transfer API requests. The amount is
// a string so the API layer can parse it into an exact decimal.
type TransferRequest struct {
	FromCardID uuid.UUID `json:"from_card_id"`
	ToCardID   uuid.UUID `json:"to_card_id"`
	Amount     string    `json:"amount"`
}

// TransferReceipt describes a completed transfer: both cards' masked numbers,
// the amount moved, and both post-transfer balances.
type TransferReceipt struct {
	Timestamp       time.Time       `json:"timestamp"`
	FromCardNumber  string          `json:"from_card_number"`
	ToCardNumber    string          `json:"to_card_number"`
	Amount          decimal.Decimal `json:"amount"`
	FromCardBalance decimal.Decimal `json:"from_card_balance"`
	ToCardBalance   decimal.Decimal `json:"to_card_balance"`
}

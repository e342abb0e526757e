package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusChangeRequest records a user's request to change a card's status.
// Only BLOCK is producible through the user-facing path; the (card_id)
// uniqueness constraint allows at most one outstanding request per card.
// Requests are never mutated; disposal is an administrative concern.
type StatusChangeRequest struct {
	ID          uuid.UUID     `json:"id"`
	CardID      uuid.UUID     `json:"card_id"`
	OwnerID     uuid.UUID     `json:"owner_id"`
	Operation   CardOperation `json:"operation"`
	RequestedAt time.Time     `json:"requested_at"`
}

// BlockRequestReceipt is returned to the user after a block request is filed.
type BlockRequestReceipt struct {
	CardID  uuid.UUID `json:"card_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Message string    `json:"message"`
}

// RequestListOptions controls filtering and pagination for status-change
// request listings.
type RequestListOptions struct {
	OwnerID   *uuid.UUID
	CardID    *uuid.UUID
	Operation *CardOperation
	Limit     int
	Offset    int
}

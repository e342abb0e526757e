/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for
 * all data access operations required by the card-service. By defining an
 * interface, we decouple the application's business logic from the specific
 * database implementation (e.g., PostgreSQL), making the code more modular and
 * easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - github.com/shopspring/decimal: For exact balance values.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/card-service/internal/domain"
)

var (
	ErrCardNotFound      = errors.New("card not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateRequest  = errors.New("an outstanding status-change request already exists for this card")
	ErrDuplicateUsername = errors.New("username is already in use")
	ErrStorageConflict   = errors.New("storage conflict; the operation can be retried")
)

// Repository defines the set of methods for interacting with the database.
// Multi-step mutations run inside InTransaction so that either every write in
// the unit of work commits or none does.
type Repository interface {
	// Card methods. Cards come back with the number already masked.
	FindCardByID(ctx context.Context, cardID uuid.UUID) (*domain.Card, error)
	FindCardByIDAndStatus(ctx context.Context, cardID uuid.UUID, status domain.CardStatus) (*domain.Card, error)
	ListCards(ctx context.Context, opts domain.CardListOptions) ([]domain.Card, error)
	CreateCard(ctx context.Context, card *domain.Card, clearNumber string) (*domain.Card, error)

	// User methods
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context, opts domain.UserListOptions) ([]domain.User, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	UserHasCardWithStatus(ctx context.Context, userID uuid.UUID, status domain.CardStatus) (bool, error)
	CreateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Status-change request methods
	CreateStatusChangeRequest(ctx context.Context, req *domain.StatusChangeRequest) (*domain.StatusChangeRequest, error)
	ListStatusChangeRequests(ctx context.Context, opts domain.RequestListOptions) ([]domain.StatusChangeRequest, error)

	// InTransaction runs fn inside a single database transaction. A non-nil
	// error from fn rolls the transaction back and is returned unchanged,
	// except that lock-wait timeouts and deadlocks surface as
	// ErrStorageConflict.
	InTransaction(ctx context.Context, fn func(tx TxRepository) error) error
}

// TxRepository is the transaction-scoped view of the store. Locked reads hold
// a row-level exclusive lock until the enclosing transaction commits or rolls
// back.
type TxRepository interface {
	FindCardByID(ctx context.Context, cardID uuid.UUID) (*domain.Card, error)
	FindCardByIDForUpdate(ctx context.Context, cardID uuid.UUID) (*domain.Card, error)
	UpdateCardStatus(ctx context.Context, cardID uuid.UUID, status domain.CardStatus) error
	UpdateCardBalance(ctx context.Context, cardID uuid.UUID, balance decimal.Decimal) error
	DeleteCard(ctx context.Context, cardID uuid.UUID) error
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	UserOwnsCard(ctx context.Context, userID, cardID uuid.UUID) (bool, error)
}

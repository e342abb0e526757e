/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` and
 * `TxRepository` interfaces. It contains all the SQL needed to work with the
 * users, cards, and card_status_requests tables.
 *
 * Key properties:
 * - Card numbers are AES-GCM encrypted on insert and returned masked on every
 *   read; the clear value never crosses the package boundary.
 * - `FindCardByIDForUpdate` uses `SELECT ... FOR UPDATE` so the caller holds a
 *   row-level exclusive lock until its transaction ends.
 * - `InTransaction` maps deadlocks and lock-wait timeouts to
 *   ErrStorageConflict so callers can treat them as retryable.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - github.com/shopspring/decimal: Exact currency arithmetic.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/card-service/internal/domain"
)

// querier abstracts pgxpool.Pool and pgx.Tx so the same query methods can run
// against either a pooled connection or an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository is the pgx-backed implementation of the Repository interface.
type PostgresRepository struct {
	pool *pgxpool.Pool
	queries
}

// NewPostgresRepository creates a new PostgresRepository using the given pool
// and card-number encryptor.
func NewPostgresRepository(pool *pgxpool.Pool, enc *CardEncryptor) *PostgresRepository {
	return &PostgresRepository{
		pool:    pool,
		queries: queries{q: pool, enc: enc},
	}
}

// txRepository is the transaction-scoped view handed to InTransaction callbacks.
type txRepository struct {
	queries
}

// InTransaction runs fn inside a single database transaction.
func (r *PostgresRepository) InTransaction(ctx context.Context, fn func(tx TxRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(txRepository{queries{q: tx, enc: r.enc}}); err != nil {
		return mapConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapConflict(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// mapConflict folds lock-wait timeouts, deadlocks, and serialization failures
// into ErrStorageConflict so callers treat them as retryable.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40P01", "55P03", "40001":
			return fmt.Errorf("%w: %s", ErrStorageConflict, pgErr.Code)
		}
	}
	return err
}

// isUniqueViolation reports whether err is a unique-constraint violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// queries holds the SQL shared between the pool-level repository and the
// transaction-scoped view.
type queries struct {
	q   querier
	enc *CardEncryptor
}

const cardColumns = `id, number_encrypted, owner_id, status, expiration_date, balance::text, created_at, updated_at`

// scanCard reads one card row, decrypts the number, and masks it before the
// card leaves the store.
func (s queries) scanCard(row pgx.Row) (*domain.Card, error) {
	var (
		card      domain.Card
		encrypted string
		status    string
		balance   string
	)
	err := row.Scan(&card.ID, &encrypted, &card.OwnerID, &status, &card.ExpirationDate, &balance, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}

	card.Status = domain.CardStatus(status)

	clear, err := s.enc.Decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt card %s: %w", card.ID, err)
	}
	card.Number = domain.MaskCardNumber(clear)

	card.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance for card %s: %w", card.ID, err)
	}

	return &card, nil
}

// FindCardByID retrieves a card by its ID.
func (s queries) FindCardByID(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM cards WHERE id = $1`, cardColumns)
	return s.scanCard(s.q.QueryRow(ctx, query, cardID))
}

// FindCardByIDForUpdate retrieves a card by ID while taking a row-level
// exclusive lock held until the enclosing transaction ends.
func (s queries) FindCardByIDForUpdate(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM cards WHERE id = $1 FOR UPDATE`, cardColumns)
	return s.scanCard(s.q.QueryRow(ctx, query, cardID))
}

// FindCardByIDAndStatus retrieves a card only when it currently has the given status.
func (s queries) FindCardByIDAndStatus(ctx context.Context, cardID uuid.UUID, status domain.CardStatus) (*domain.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM cards WHERE id = $1 AND status = $2`, cardColumns)
	return s.scanCard(s.q.QueryRow(ctx, query, cardID, status.String()))
}

// ListCards returns cards ordered by creation time, with optional owner,
// status, and expiration-date filters plus limit/offset pagination.
func (s queries) ListCards(ctx context.Context, opts domain.CardListOptions) ([]domain.Card, error) {
	conditions := []string{}
	args := []any{}

	if opts.OwnerID != nil {
		args = append(args, *opts.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if opts.Status != nil {
		args = append(args, opts.Status.String())
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if opts.ExpirationDate != nil {
		args = append(args, *opts.ExpirationDate)
		conditions = append(conditions, fmt.Sprintf("expiration_date = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM cards`, cardColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := s.scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// CreateCard inserts a new card, encrypting the clear number before it is
// written. The returned card carries the masked number.
func (s queries) CreateCard(ctx context.Context, card *domain.Card, clearNumber string) (*domain.Card, error) {
	encrypted, err := s.enc.Encrypt(clearNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt card number: %w", err)
	}

	query := `
		INSERT INTO cards (id, number_encrypted, owner_id, status, expiration_date, balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err = s.q.QueryRow(ctx, query,
		card.ID,
		encrypted,
		card.OwnerID,
		card.Status.String(),
		card.ExpirationDate,
		card.Balance.String(),
	).Scan(&card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, err
	}

	saved := *card
	saved.Number = domain.MaskCardNumber(clearNumber)
	return &saved, nil
}

// UpdateCardStatus sets a card's status.
func (s queries) UpdateCardStatus(ctx context.Context, cardID uuid.UUID, status domain.CardStatus) error {
	result, err := s.q.Exec(ctx, `UPDATE cards SET status = $1, updated_at = NOW() WHERE id = $2`, status.String(), cardID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// UpdateCardBalance sets a card's balance.
func (s queries) UpdateCardBalance(ctx context.Context, cardID uuid.UUID, balance decimal.Decimal) error {
	result, err := s.q.Exec(ctx, `UPDATE cards SET balance = $1, updated_at = NOW() WHERE id = $2`, balance.String(), cardID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// DeleteCard permanently removes a card row.
func (s queries) DeleteCard(ctx context.Context, cardID uuid.UUID) error {
	result, err := s.q.Exec(ctx, `DELETE FROM cards WHERE id = $1`, cardID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// FindUserByID retrieves a user from the database by their ID.
func (s queries) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `SELECT id, username, password_hash, role, enabled, created_at FROM users WHERE id = $1`
	return s.scanUser(s.q.QueryRow(ctx, query, userID))
}

// FindUserByUsername retrieves a user from the database by their username.
func (s queries) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT id, username, password_hash, role, enabled, created_at FROM users WHERE lower(btrim(username)) = lower(btrim($1))`
	return s.scanUser(s.q.QueryRow(ctx, query, username))
}

func (s queries) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.Enabled, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Role = domain.UserRole(role)
	return &user, nil
}

// ListUsers returns users ordered by creation time, with an optional enabled
// filter plus limit/offset pagination.
func (s queries) ListUsers(ctx context.Context, opts domain.UserListOptions) ([]domain.User, error) {
	conditions := []string{}
	args := []any{}

	if opts.Enabled != nil {
		args = append(args, *opts.Enabled)
		conditions = append(conditions, fmt.Sprintf("enabled = $%d", len(args)))
	}

	query := `SELECT id, username, password_hash, role, enabled, created_at FROM users`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UserExists reports whether a user with the given ID exists.
func (s queries) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}

// UserOwnsCard reports whether the card belongs to the user.
func (s queries) UserOwnsCard(ctx context.Context, userID, cardID uuid.UUID) (bool, error) {
	var owns bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE id = $1 AND owner_id = $2)`, cardID, userID).Scan(&owns)
	return owns, err
}

// UserHasCardWithStatus reports whether the user owns at least one card in the
// given status.
func (s queries) UserHasCardWithStatus(ctx context.Context, userID uuid.UUID, status domain.CardStatus) (bool, error) {
	var has bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE owner_id = $1 AND status = $2)`, userID, status.String()).Scan(&has)
	return has, err
}

// CreateUser inserts a new user record. The unique constraint on username
// surfaces as ErrDuplicateUsername.
func (s queries) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, role, enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := s.q.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.Enabled,
	).Scan(&user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	return err
}

// DeleteUser permanently removes a user row.
func (s queries) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	result, err := s.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreateStatusChangeRequest persists a block request. The unique constraint on
// card_id means a second outstanding request for the same card fails with
// ErrDuplicateRequest.
func (s queries) CreateStatusChangeRequest(ctx context.Context, req *domain.StatusChangeRequest) (*domain.StatusChangeRequest, error) {
	query := `
		INSERT INTO card_status_requests (id, card_id, owner_id, operation)
		VALUES ($1, $2, $3, $4)
		RETURNING requested_at
	`
	saved := *req
	err := s.q.QueryRow(ctx, query, req.ID, req.CardID, req.OwnerID, req.Operation.String()).Scan(&saved.RequestedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	return &saved, nil
}

// ListStatusChangeRequests returns status-change requests ordered by request
// time, with optional owner, card, and operation filters.
func (s queries) ListStatusChangeRequests(ctx context.Context, opts domain.RequestListOptions) ([]domain.StatusChangeRequest, error) {
	conditions := []string{}
	args := []any{}

	if opts.OwnerID != nil {
		args = append(args, *opts.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if opts.CardID != nil {
		args = append(args, *opts.CardID)
		conditions = append(conditions, fmt.Sprintf("card_id = $%d", len(args)))
	}
	if opts.Operation != nil {
		args = append(args, opts.Operation.String())
		conditions = append(conditions, fmt.Sprintf("operation = $%d", len(args)))
	}

	query := `SELECT id, card_id, owner_id, operation, requested_at FROM card_status_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY requested_at ASC, id ASC"

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []domain.StatusChangeRequest
	for rows.Next() {
		var (
			req       domain.StatusChangeRequest
			operation string
		)
		if err := rows.Scan(&req.ID, &req.CardID, &req.OwnerID, &operation, &req.RequestedAt); err != nil {
			return nil, err
		}
		req.Operation = domain.CardOperation(operation)
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

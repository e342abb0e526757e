package app

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/card-service/internal/domain"
	"github.com/vaultpay/card-service/internal/store"
)

// fakeRepository is an in-memory store.Repository used across the app tests.
// InTransaction serializes units of work under one mutex and restores a
// snapshot when fn fails, mirroring the commit/rollback contract of the real
// repository.
type fakeRepository struct {
	mu       sync.Mutex
	users    map[uuid.UUID]domain.User
	cards    map[uuid.UUID]domain.Card
	requests map[uuid.UUID]domain.StatusChangeRequest // keyed by card id
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:    make(map[uuid.UUID]domain.User),
		cards:    make(map[uuid.UUID]domain.Card),
		requests: make(map[uuid.UUID]domain.StatusChangeRequest),
	}
}

func (r *fakeRepository) addUser(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

func (r *fakeRepository) addCard(card domain.Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[card.ID] = card
}

func (r *fakeRepository) cardBalance(cardID uuid.UUID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cards[cardID].Balance
}

func (r *fakeRepository) FindCardByID(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, ok := r.cards[cardID]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return &card, nil
}

func (r *fakeRepository) FindCardByIDAndStatus(ctx context.Context, cardID uuid.UUID, status domain.CardStatus) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, ok := r.cards[cardID]
	if !ok || card.Status != status {
		return nil, store.ErrCardNotFound
	}
	return &card, nil
}

func (r *fakeRepository) ListCards(ctx context.Context, opts domain.CardListOptions) ([]domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cards []domain.Card
	for _, card := range r.cards {
		if opts.OwnerID != nil && card.OwnerID != *opts.OwnerID {
			continue
		}
		if opts.Status != nil && card.Status != *opts.Status {
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (r *fakeRepository) CreateCard(ctx context.Context, card *domain.Card, clearNumber string) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := *card
	saved.Number = domain.MaskCardNumber(clearNumber)
	r.cards[saved.ID] = saved
	return &saved, nil
}

func (r *fakeRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &user, nil
}

func (r *fakeRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Username, username) {
			u := user
			return &u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (r *fakeRepository) ListUsers(ctx context.Context, opts domain.UserListOptions) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []domain.User
	for _, user := range r.users {
		if opts.Enabled != nil && user.Enabled != *opts.Enabled {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

func (r *fakeRepository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[userID]
	return ok, nil
}

func (r *fakeRepository) UserHasCardWithStatus(ctx context.Context, userID uuid.UUID, status domain.CardStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, card := range r.cards {
		if card.OwnerID == userID && card.Status == status {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepository) CreateUser(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return store.ErrDuplicateUsername
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeRepository) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return store.ErrUserNotFound
	}
	delete(r.users, userID)
	return nil
}

func (r *fakeRepository) CreateStatusChangeRequest(ctx context.Context, req *domain.StatusChangeRequest) (*domain.StatusChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[req.CardID]; exists {
		return nil, store.ErrDuplicateRequest
	}
	saved := *req
	r.requests[saved.CardID] = saved
	return &saved, nil
}

func (r *fakeRepository) ListStatusChangeRequests(ctx context.Context, opts domain.RequestListOptions) ([]domain.StatusChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var requests []domain.StatusChangeRequest
	for _, req := range r.requests {
		if opts.OwnerID != nil && req.OwnerID != *opts.OwnerID {
			continue
		}
		if opts.CardID != nil && req.CardID != *opts.CardID {
			continue
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (r *fakeRepository) InTransaction(ctx context.Context, fn func(tx store.TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[uuid.UUID]domain.Card, len(r.cards))
	for id, card := range r.cards {
		snapshot[id] = card
	}

	if err := fn(&fakeTx{repo: r}); err != nil {
		r.cards = snapshot
		return err
	}
	return nil
}

// fakeTx operates on the repository maps directly; the enclosing
// InTransaction call already holds the mutex.
type fakeTx struct {
	repo *fakeRepository
}

func (t *fakeTx) FindCardByID(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	card, ok := t.repo.cards[cardID]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return &card, nil
}

func (t *fakeTx) FindCardByIDForUpdate(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	return t.FindCardByID(ctx, cardID)
}

func (t *fakeTx) UpdateCardStatus(ctx context.Context, cardID uuid.UUID, status domain.CardStatus) error {
	card, ok := t.repo.cards[cardID]
	if !ok {
		return store.ErrCardNotFound
	}
	card.Status = status
	t.repo.cards[cardID] = card
	return nil
}

func (t *fakeTx) UpdateCardBalance(ctx context.Context, cardID uuid.UUID, balance decimal.Decimal) error {
	card, ok := t.repo.cards[cardID]
	if !ok {
		return store.ErrCardNotFound
	}
	card.Balance = balance
	t.repo.cards[cardID] = card
	return nil
}

func (t *fakeTx) DeleteCard(ctx context.Context, cardID uuid.UUID) error {
	if _, ok := t.repo.cards[cardID]; !ok {
		return store.ErrCardNotFound
	}
	delete(t.repo.cards, cardID)
	return nil
}

func (t *fakeTx) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, ok := t.repo.users[userID]
	return ok, nil
}

func (t *fakeTx) UserOwnsCard(ctx context.Context, userID, cardID uuid.UUID) (bool, error) {
	card, ok := t.repo.cards[cardID]
	return ok && card.OwnerID == userID, nil
}

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/card-service/internal/domain"
	"github.com/vaultpay/card-service/internal/store"
)

func newTestService(repo store.Repository) *Service {
	return NewService(repo, nil, nil, Options{JWTSecret: []byte("test-secret")})
}

func seedCard(repo *fakeRepository, status domain.CardStatus) domain.Card {
	card := domain.Card{
		ID:      uuid.New(),
		Number:  "**** **** **** 4242",
		OwnerID: uuid.New(),
		Status:  status,
		Balance: decimal.NewFromInt(100),
	}
	repo.addCard(card)
	return card
}

func TestPerformOperation_TransitionTable(t *testing.T) {
	tests := []struct {
		name        string
		op          domain.CardOperation
		from        domain.CardStatus
		wantStatus  domain.CardStatus
		wantRemoved bool
		wantErr     bool
	}{
		{name: "activate from active refused", op: domain.OperationActivate, from: domain.CardStatusActive, wantErr: true},
		{name: "activate from blocked", op: domain.OperationActivate, from: domain.CardStatusBlocked, wantStatus: domain.CardStatusActive},
		{name: "activate from deleted refused", op: domain.OperationActivate, from: domain.CardStatusDeleted, wantErr: true},
		{name: "activate from expired", op: domain.OperationActivate, from: domain.CardStatusExpired, wantStatus: domain.CardStatusActive},

		{name: "block from active", op: domain.OperationBlock, from: domain.CardStatusActive, wantStatus: domain.CardStatusBlocked},
		{name: "block from blocked refused", op: domain.OperationBlock, from: domain.CardStatusBlocked, wantErr: true},
		{name: "block from deleted refused", op: domain.OperationBlock, from: domain.CardStatusDeleted, wantErr: true},
		{name: "block from expired refused", op: domain.OperationBlock, from: domain.CardStatusExpired, wantErr: true},

		{name: "delete from active", op: domain.OperationDelete, from: domain.CardStatusActive, wantStatus: domain.CardStatusDeleted},
		{name: "delete from blocked", op: domain.OperationDelete, from: domain.CardStatusBlocked, wantStatus: domain.CardStatusDeleted},
		{name: "delete from deleted refused", op: domain.OperationDelete, from: domain.CardStatusDeleted, wantErr: true},
		{name: "delete from expired", op: domain.OperationDelete, from: domain.CardStatusExpired, wantStatus: domain.CardStatusDeleted},

		{name: "deep delete from active", op: domain.OperationDeepDelete, from: domain.CardStatusActive, wantRemoved: true},
		{name: "deep delete from blocked refused", op: domain.OperationDeepDelete, from: domain.CardStatusBlocked, wantErr: true},
		{name: "deep delete from deleted", op: domain.OperationDeepDelete, from: domain.CardStatusDeleted, wantRemoved: true},
		{name: "deep delete from expired", op: domain.OperationDeepDelete, from: domain.CardStatusExpired, wantRemoved: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepository()
			seeded := seedCard(repo, tc.from)
			svc := newTestService(repo)

			card, err := svc.PerformOperation(context.Background(), seeded.ID, tc.op)

			if tc.wantErr {
				if !errors.Is(err, ErrInvalidState) {
					t.Fatalf("expected ErrInvalidState, got %v", err)
				}
				stored, findErr := repo.FindCardByID(context.Background(), seeded.ID)
				if findErr != nil {
					t.Fatalf("card should survive a refused operation: %v", findErr)
				}
				if stored.Status != tc.from {
					t.Fatalf("refused operation must not change status: got %s, want %s", stored.Status, tc.from)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantRemoved {
				if card != nil {
					t.Fatalf("expected nil card after removal, got %+v", card)
				}
				if _, findErr := repo.FindCardByID(context.Background(), seeded.ID); !errors.Is(findErr, store.ErrCardNotFound) {
					t.Fatalf("expected card row to be gone, got %v", findErr)
				}
				return
			}
			if card == nil {
				t.Fatal("expected a card projection back")
			}
			if card.Status != tc.wantStatus {
				t.Fatalf("got status %s, want %s", card.Status, tc.wantStatus)
			}
			stored, _ := repo.FindCardByID(context.Background(), seeded.ID)
			if stored.Status != tc.wantStatus {
				t.Fatalf("stored status %s, want %s", stored.Status, tc.wantStatus)
			}
		})
	}
}

func TestPerformOperation_UnknownOperationRefused(t *testing.T) {
	repo := newFakeRepository()
	seeded := seedCard(repo, domain.CardStatusActive)
	svc := newTestService(repo)

	_, err := svc.PerformOperation(context.Background(), seeded.ID, domain.CardOperation("SHRED"))
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
	}
}

func TestPerformOperation_MissingCard(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	_, err := svc.PerformOperation(context.Background(), uuid.New(), domain.OperationBlock)
	if !errors.Is(err, store.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

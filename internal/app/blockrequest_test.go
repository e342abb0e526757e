package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/vaultpay/card-service/internal/domain"
	"github.com/vaultpay/card-service/internal/store"
)

func TestRequestBlock_FilesRequestForActiveOwnedCard(t *testing.T) {
	repo := newFakeRepository()
	userID, cards := seedUserWithCards(repo, 1000)
	svc := newTestService(repo)

	receipt, err := svc.RequestBlock(context.Background(), userID, cards[0].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.CardID != cards[0].ID || receipt.OwnerID != userID {
		t.Fatalf("receipt identifies %s/%s, want %s/%s", receipt.CardID, receipt.OwnerID, cards[0].ID, userID)
	}
	if receipt.Message == "" {
		t.Fatal("receipt must carry a confirmation message")
	}

	requests, err := svc.ListBlockRequests(context.Background(), domain.RequestListOptions{CardID: &cards[0].ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("got %d stored requests, want 1", len(requests))
	}
	if requests[0].Operation != domain.OperationBlock {
		t.Fatalf("stored operation %s, want %s", requests[0].Operation, domain.OperationBlock)
	}
}

func TestRequestBlock_SecondRequestForSameCardRefused(t *testing.T) {
	repo := newFakeRepository()
	userID, cards := seedUserWithCards(repo, 1000)
	svc := newTestService(repo)

	if _, err := svc.RequestBlock(context.Background(), userID, cards[0].ID); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if _, err := svc.RequestBlock(context.Background(), userID, cards[0].ID); !errors.Is(err, store.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestRequestBlock_RejectsForeignCard(t *testing.T) {
	repo := newFakeRepository()
	userID, _ := seedUserWithCards(repo, 1000)
	_, otherCards := seedUserWithCards(repo, 500)
	svc := newTestService(repo)

	if _, err := svc.RequestBlock(context.Background(), userID, otherCards[0].ID); !errors.Is(err, ErrInvalidOwnership) {
		t.Fatalf("expected ErrInvalidOwnership, got %v", err)
	}
}

func TestRequestBlock_RejectsNonActiveCard(t *testing.T) {
	repo := newFakeRepository()
	userID, cards := seedUserWithCards(repo, 1000)
	blocked := cards[0]
	blocked.Status = domain.CardStatusBlocked
	repo.addCard(blocked)
	svc := newTestService(repo)

	if _, err := svc.RequestBlock(context.Background(), userID, blocked.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestRequestBlock_RejectsUnknownUser(t *testing.T) {
	repo := newFakeRepository()
	_, cards := seedUserWithCards(repo, 1000)
	svc := newTestService(repo)

	if _, err := svc.RequestBlock(context.Background(), uuid.New(), cards[0].ID); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRequestBlock_RejectsMissingCard(t *testing.T) {
	repo := newFakeRepository()
	userID, _ := seedUserWithCards(repo, 1000)
	svc := newTestService(repo)

	if _, err := svc.RequestBlock(context.Background(), userID, uuid.New()); !errors.Is(err, store.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

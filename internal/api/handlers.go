/**
 * @description
 * This file contains the HTTP handlers for the card-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models,
 *   and the recoverable error taxonomy.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/card-service/internal/app"
	"github.com/vaultpay/card-service/internal/domain"
	"github.com/vaultpay/card-service/internal/store"
)

// CardHandlers holds the application service that handlers will use.
type CardHandlers struct {
	service *app.Service
}

// NewCardHandlers creates a new instance of CardHandlers.
func NewCardHandlers(service *app.Service) *CardHandlers {
	return &CardHandlers{service: service}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *CardHandlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
		}
	}
}

func (h *CardHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps the recoverable error taxonomy onto HTTP statuses.
func (h *CardHandlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrCardNotFound), errors.Is(err, store.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrInvalidState),
		errors.Is(err, app.ErrInvalidOwnership),
		errors.Is(err, app.ErrInsufficientFunds),
		errors.Is(err, app.ErrUnsupportedOperation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicateRequest),
		errors.Is(err, store.ErrDuplicateUsername),
		errors.Is(err, app.ErrUserHasActiveCards):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrStorageConflict):
		h.writeError(w, http.StatusConflict, "The operation conflicted with another in-flight request; please retry.")
	default:
		log.Printf("level=error component=api msg=\"request failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *CardHandlers) authenticatedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return uuid.Nil, false
	}
	return userID, true
}

func cardIDFromURL(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "cardID"))
}

// LoginHandler verifies credentials and returns a signed bearer token.
func (h *CardHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.service.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) || errors.Is(err, app.ErrUserDisabled) {
			h.writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// SignupHandler registers a new user account.
func (h *CardHandlers) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.service.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			h.writeError(w, http.StatusBadRequest, "Username and password are required")
			return
		}
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// GetMyProfileHandler returns the authenticated user's own account.
func (h *CardHandlers) GetMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// ListMyCardsHandler returns the authenticated user's cards.
func (h *CardHandlers) ListMyCardsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	opts, err := cardListOptionsFromQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cards, err := h.service.ListUserCards(r.Context(), userID, opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	h.writeJSON(w, http.StatusOK, cards)
}

// GetMyCardHandler returns one of the authenticated user's cards.
func (h *CardHandlers) GetMyCardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	cardID, err := cardIDFromURL(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid card ID")
		return
	}

	card, err := h.service.GetUserCard(r.Context(), userID, cardID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// GetMyCardBalanceHandler returns the balance of one of the user's ACTIVE cards.
func (h *CardHandlers) GetMyCardBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	cardID, err := cardIDFromURL(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid card ID")
		return
	}

	balance, err := h.service.GetUserCardBalance(r.Context(), userID, cardID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

// RequestBlockHandler files a block request for one of the user's cards.
func (h *CardHandlers) RequestBlockHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	cardID, err := cardIDFromURL(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid card ID")
		return
	}

	receipt, err := h.service.RequestBlock(r.Context(), userID, cardID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, receipt)
}

// TransferHandler moves funds between two of the user's cards.
func (h *CardHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	amount, err := parseTransferAmount(req.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.service.Transfer(r.Context(), userID, req.FromCardID, req.ToCardID, amount)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, receipt)
}

// ListCardsHandler returns cards across all users, for administrators.
func (h *CardHandlers) ListCardsHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := cardListOptionsFromQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ownerParam := r.URL.Query().Get("owner_id"); ownerParam != "" {
		ownerID, err := uuid.Parse(ownerParam)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid owner ID")
			return
		}
		opts.OwnerID = &ownerID
	}

	cards, err := h.service.ListCards(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	h.writeJSON(w, http.StatusOK, cards)
}

// GetCardHandler returns any card by id, for administrators.
func (h *CardHandlers) GetCardHandler(w http.ResponseWriter, r *http.Request) {
	cardID, err := cardIDFromURL(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid card ID")
		return
	}

	card, err := h.service.GetCard(r.Context(), cardID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// IssueCardHandler creates a new card for the given user, for administrators.
func (h *CardHandlers) IssueCardHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	card, err := h.service.IssueCard(r.Context(), ownerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, card)
}

// PerformOperationHandler applies a lifecycle operation to a card, for
// administrators. A DEEP_DELETE responds 204 because the card no longer exists.
func (h *CardHandlers) PerformOperationHandler(w http.ResponseWriter, r *http.Request) {
	cardID, err := cardIDFromURL(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid card ID")
		return
	}

	var req struct {
		Operation string `json:"operation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	op, err := domain.ParseCardOperation(req.Operation)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := h.service.PerformOperation(r.Context(), cardID, op)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if card == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

// ListUsersHandler returns user accounts, for administrators.
func (h *CardHandlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	opts := domain.UserListOptions{}
	opts.Limit, opts.Offset = paginationFromQuery(r)

	if enabledParam := r.URL.Query().Get("enabled"); enabledParam != "" {
		enabled, err := strconv.ParseBool(enabledParam)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid enabled filter")
			return
		}
		opts.Enabled = &enabled
	}

	users, err := h.service.ListUsers(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	h.writeJSON(w, http.StatusOK, users)
}

// GetUserHandler returns any user by id, for administrators.
func (h *CardHandlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// DeleteUserHandler removes a user account, for administrators. Deletion is
// refused while the user still holds an ACTIVE card.
func (h *CardHandlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBlockRequestsHandler returns outstanding status-change requests, for
// administrators.
func (h *CardHandlers) ListBlockRequestsHandler(w http.ResponseWriter, r *http.Request) {
	opts := domain.RequestListOptions{}
	opts.Limit, opts.Offset = paginationFromQuery(r)

	if ownerParam := r.URL.Query().Get("owner_id"); ownerParam != "" {
		ownerID, err := uuid.Parse(ownerParam)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid owner ID")
			return
		}
		opts.OwnerID = &ownerID
	}
	if cardParam := r.URL.Query().Get("card_id"); cardParam != "" {
		cardID, err := uuid.Parse(cardParam)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid card ID")
			return
		}
		opts.CardID = &cardID
	}

	requests, err := h.service.ListBlockRequests(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if requests == nil {
		requests = []domain.StatusChangeRequest{}
	}
	h.writeJSON(w, http.StatusOK, requests)
}

// parseTransferAmount parses a transfer amount, refusing anything that is not
// representable in whole cents. Trailing zeros beyond two places ("10.000")
// are fine; a third significant decimal place is not.
func parseTransferAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, errors.New("invalid transfer amount")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return decimal.Decimal{}, errors.New("transfer amount cannot have more than two decimal places")
	}
	return amount, nil
}

func cardListOptionsFromQuery(r *http.Request) (domain.CardListOptions, error) {
	opts := domain.CardListOptions{}
	opts.Limit, opts.Offset = paginationFromQuery(r)

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status, err := domain.ParseCardStatus(statusParam)
		if err != nil {
			return opts, err
		}
		opts.Status = &status
	}
	return opts, nil
}

func paginationFromQuery(r *http.Request) (limit, offset int) {
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

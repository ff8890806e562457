package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type OpenAccountRequest struct {
	AccountType string `json:"account_type"`
}

type AccountResponse struct {
	AccountNumber  string     `json:"account_number"`
	AccountType    string     `json:"account_type"`
	Status         string     `json:"status"`
	Balance        string     `json:"balance"`
	CreatedAt      time.Time  `json:"created_at"`
	LastInterestAt *time.Time `json:"last_interest_at,omitempty"`
}

func toAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		AccountNumber:  account.Number,
		AccountType:    string(account.Type),
		Status:         string(account.Status),
		Balance:        account.Balance.StringFixed(2),
		CreatedAt:      account.CreatedAt,
		LastInterestAt: account.LastInterestAt,
	}
}

func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	account, err := h.accountService.Open(userID, domain.AccountType(req.AccountType))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountService.ListForUser(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, toAccountResponse(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	account, err := h.accountService.Get(userID, mux.Vars(r)["number"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	account, err := h.accountService.Close(userID, mux.Vars(r)["number"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

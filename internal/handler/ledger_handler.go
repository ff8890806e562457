package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type LedgerHandler struct {
	ledgerService *service.LedgerService
}

func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

type AmountRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

type TransferRequest struct {
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Amount      string `json:"amount"`
}

type TransferResponse struct {
	Reference   string `json:"reference"`
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Amount      string `json:"amount"`
	Balance     string `json:"balance"`
}

func parseAmount(raw string) (decimal.Decimal, *errors.AppError) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error())
	}
	return amount, nil
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	account, err := h.ledgerService.Deposit(userID, mux.Vars(r)["number"], amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	account, err := h.ledgerService.Withdraw(userID, mux.Vars(r)["number"], amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	source, ref, err := h.ledgerService.Transfer(userID, req.FromAccount, req.ToAccount, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TransferResponse{
		Reference:   ref.String(),
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		Amount:      amount.StringFixed(2),
		Balance:     source.Balance.StringFixed(2),
	})
}

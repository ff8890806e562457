package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type LoanHandler struct {
	loanService *service.LoanService
}

func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
	}
}

type ApplyLoanRequest struct {
	AccountNumber  string `json:"account_number"`
	Amount         string `json:"amount"`
	InterestRate   string `json:"interest_rate"`
	DurationMonths int    `json:"duration_months"`
}

type RepayLoanRequest struct {
	Amount string `json:"amount"`
}

type LoanResponse struct {
	LoanID         int64      `json:"loan_id"`
	AccountID      int64      `json:"account_id"`
	Amount         string     `json:"amount"`
	InterestRate   string     `json:"interest_rate"`
	DurationMonths int        `json:"duration_months"`
	Status         string     `json:"status"`
	TotalPayable   *string    `json:"total_payable,omitempty"`
	ReturnDate     *time.Time `json:"return_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	resp := LoanResponse{
		LoanID:         loan.ID,
		AccountID:      loan.AccountID,
		Amount:         loan.Amount.StringFixed(2),
		InterestRate:   loan.InterestRate.String(),
		DurationMonths: loan.DurationMonths,
		Status:         string(loan.Status),
		ReturnDate:     loan.ReturnDate,
		CreatedAt:      loan.CreatedAt,
	}
	if loan.TotalPayable.Valid {
		payable := loan.TotalPayable.Decimal.StringFixed(2)
		resp.TotalPayable = &payable
	}
	return resp
}

func loanIDFromPath(r *http.Request) (int64, *errors.AppError) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewAppError(errors.InvalidInput, "invalid loan id")
	}
	return id, nil
}

func (h *LoanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ApplyLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	rate, appErr := parseAmount(req.InterestRate)
	if appErr != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid interest_rate format"))
		return
	}

	loan, err := h.loanService.Apply(userID, req.AccountNumber, amount, rate, req.DurationMonths)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLoanResponse(loan))
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	loans, err := h.loanService.ListForUser(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]LoanResponse, 0, len(loans))
	for i := range loans {
		responses = append(responses, toLoanResponse(&loans[i]))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	loanID, appErr := loanIDFromPath(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	loan, err := h.loanService.Get(userID, loanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (h *LoanHandler) Repay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	loanID, appErr := loanIDFromPath(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	var req RepayLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, appErr := parseAmount(req.Amount)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	loan, err := h.loanService.Repay(userID, loanID, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

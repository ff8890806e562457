package handler

import (
	"net/http"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/service"
)

// AdminHandler exposes the back-office operations: reviewing loan
// applications and triggering the interest accrual batch. Route-level
// authorization is the server's concern; these handlers only run the
// operations.
type AdminHandler struct {
	loanService   *service.LoanService
	ledgerService *service.LedgerService
}

func NewAdminHandler(loanService *service.LoanService, ledgerService *service.LedgerService) *AdminHandler {
	return &AdminHandler{
		loanService:   loanService,
		ledgerService: ledgerService,
	}
}

type InterestRunResponse struct {
	AccountsProcessed int    `json:"accounts_processed"`
	TotalInterest     string `json:"total_interest"`
}

func (h *AdminHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	status := domain.LoanStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.LoanStatusPending
	}

	loans, err := h.loanService.ListByStatus(status)
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

func (h *AdminHandler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	loanID, appErr := loanIDFromPath(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	loan, err := h.loanService.Approve(loanID, time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

func (h *AdminHandler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	loanID, appErr := loanIDFromPath(r)
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	loan, err := h.loanService.Reject(loanID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

// RunInterest triggers one accrual pass over all active savings accounts.
// The external scheduler (cron, systemd timer) is expected to call this.
func (h *AdminHandler) RunInterest(w http.ResponseWriter, r *http.Request) {
	processed, total, err := h.ledgerService.AccrueAllInterest(time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, InterestRunResponse{
		AccountsProcessed: processed,
		TotalInterest:     total.StringFixed(2),
	})
}

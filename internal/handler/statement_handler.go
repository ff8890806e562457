package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

// StatementHandler serves an account's transaction history as JSON, PDF or
// XLSX depending on the format query parameter.
type StatementHandler struct {
	accountService *service.AccountService
}

func NewStatementHandler(accountService *service.AccountService) *StatementHandler {
	return &StatementHandler{
		accountService: accountService,
	}
}

type StatementEntry struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Reference   string    `json:"reference"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type StatementResponse struct {
	Account      AccountResponse  `json:"account"`
	Transactions []StatementEntry `json:"transactions"`
}

func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	account, transactions, err := h.accountService.Statement(userID, mux.Vars(r)["number"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "pdf":
		h.writePDF(w, account, transactions)
	case "xlsx":
		h.writeXLSX(w, account, transactions)
	case "", "json":
		entries := make([]StatementEntry, 0, len(transactions))
		for _, tx := range transactions {
			entries = append(entries, StatementEntry{
				ID:          tx.ID,
				Type:        string(tx.Type),
				Amount:      tx.Amount.StringFixed(2),
				Reference:   tx.Reference.String(),
				Description: tx.Description,
				CreatedAt:   tx.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, StatementResponse{
			Account:      toAccountResponse(account),
			Transactions: entries,
		})
	default:
		writeError(w, errors.NewAppError(errors.InvalidInput, "format must be json, pdf or xlsx"))
	}
}

func (h *StatementHandler) writePDF(w http.ResponseWriter, account *domain.Account, transactions []domain.Transaction) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Statement for account %s", account.Number))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(20, 7, "ID")
	pdf.Cell(35, 7, "Type")
	pdf.Cell(35, 7, "Amount")
	pdf.Cell(60, 7, "Description")
	pdf.Cell(40, 7, "Date")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 12)
	for _, tx := range transactions {
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", tx.ID), "1", 0, "", false, 0, "")
		pdf.CellFormat(35, 7, string(tx.Type), "1", 0, "", false, 0, "")
		pdf.CellFormat(35, 7, tx.Amount.StringFixed(2), "1", 0, "", false, 0, "")
		pdf.CellFormat(60, 7, tx.Description, "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, tx.CreatedAt.Format("2006-01-02 15:04:05"), "1", 0, "", false, 0, "")
		pdf.Ln(7)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=statement_%s.pdf", account.Number))
	if err := pdf.Output(w); err != nil {
		writeError(w, errors.NewAppError(errors.InternalError, "failed to render PDF").WithDetails(err.Error()))
	}
}

func (h *StatementHandler) writeXLSX(w http.ResponseWriter, account *domain.Account, transactions []domain.Transaction) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Statement")
	if err != nil {
		writeError(w, errors.NewAppError(errors.InternalError, "failed to build workbook").WithDetails(err.Error()))
		return
	}

	header := sheet.AddRow()
	header.AddCell().SetValue("ID")
	header.AddCell().SetValue("Type")
	header.AddCell().SetValue("Amount")
	header.AddCell().SetValue("Reference")
	header.AddCell().SetValue("Description")
	header.AddCell().SetValue("Date")

	for _, tx := range transactions {
		row := sheet.AddRow()
		row.AddCell().SetValue(tx.ID)
		row.AddCell().SetValue(string(tx.Type))
		row.AddCell().SetValue(tx.Amount.StringFixed(2))
		row.AddCell().SetValue(tx.Reference.String())
		row.AddCell().SetValue(tx.Description)
		row.AddCell().SetValue(tx.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=statement_%s.xlsx", account.Number))
	if err := file.Write(w); err != nil {
		writeError(w, errors.NewAppError(errors.InternalError, "failed to render XLSX").WithDetails(err.Error()))
	}
}

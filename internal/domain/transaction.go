package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeInterest   TransactionType = "interest"
	TransactionTypeRepayment  TransactionType = "repayment"
)

// Transaction is an append-only record of a single balance mutation. Amount is
// always positive; direction is implied by Type. The two legs of a transfer
// share a Reference so they can be correlated in statements.
type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   uuid.UUID       `json:"reference"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type TransactionRepository interface {
	Create(tx *Transaction) error
	ListByAccount(accountID int64) ([]Transaction, error)
}

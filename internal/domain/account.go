package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings AccountType = "savings"
	AccountTypeCurrent AccountType = "current"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusClosed AccountStatus = "closed"
)

// Account is a single-currency balance owned by a user. Balance is always
// rounded to 2 decimal places and is only mutated through the ledger service.
type Account struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Number         string          `json:"account_number"`
	Type           AccountType     `json:"account_type"`
	Status         AccountStatus   `json:"status"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
	LastInterestAt *time.Time      `json:"last_interest_at,omitempty"`
}

type AccountRepository interface {
	Create(account *Account) error
	GetByID(id int64) (*Account, error)
	GetByIDForUpdate(id int64) (*Account, error)
	GetByNumber(number string) (*Account, error)
	GetByNumberForUpdate(number string) (*Account, error)
	UpdateBalance(id int64, balance decimal.Decimal) error
	UpdateStatus(id int64, status AccountStatus) error
	SetInterestAccrued(id int64, balance decimal.Decimal, accruedAt time.Time) error
	ListByUser(userID int64) ([]Account, error)
	ListActiveSavings() ([]Account, error)
}

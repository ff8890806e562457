package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "pending"
	LoanStatusApproved LoanStatus = "approved"
	LoanStatusRejected LoanStatus = "rejected"
	LoanStatusRepaid   LoanStatus = "repaid"
)

// loanTransitions is the closed set of valid status transitions. Rejected and
// repaid are terminal.
var loanTransitions = map[LoanStatus]map[LoanStatus]bool{
	LoanStatusPending:  {LoanStatusApproved: true, LoanStatusRejected: true},
	LoanStatusApproved: {LoanStatusRepaid: true},
}

func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	return loanTransitions[s][next]
}

// Loan tracks a borrowing request against an account. TotalPayable and
// ReturnDate stay null until approval; TotalPayable is set exactly once, on
// the pending->approved transition, and only decreases afterward.
type Loan struct {
	ID             int64               `json:"id"`
	UserID         int64               `json:"user_id"`
	AccountID      int64               `json:"account_id"`
	Amount         decimal.Decimal     `json:"amount"`
	InterestRate   decimal.Decimal     `json:"interest_rate"`
	DurationMonths int                 `json:"duration_months"`
	Status         LoanStatus          `json:"status"`
	TotalPayable   decimal.NullDecimal `json:"total_payable,omitempty"`
	ReturnDate     *time.Time          `json:"return_date,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

type LoanRepository interface {
	Create(loan *Loan) error
	GetByID(id int64) (*Loan, error)
	GetByIDForUpdate(id int64) (*Loan, error)
	Update(loan *Loan) error
	ListByUser(userID int64) ([]Loan, error)
	ListByStatus(status LoanStatus) ([]Loan, error)
}

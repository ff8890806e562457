package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

var hundred = decimal.NewFromInt(100)

// LoanService owns the loan state machine: apply, approve, reject, repay.
// Approval credits the loan account and fixes the payable total and return
// date exactly once; repayments drain the payable until the loan flips to
// repaid. Every transition runs as a single store transaction against rows
// re-read under lock.
type LoanService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewLoanService(store domain.Store, logger *slog.Logger) *LoanService {
	return &LoanService{
		store:  store,
		logger: logger,
	}
}

// Apply records a loan request in pending state. No funds move until an
// administrator approves it.
func (s *LoanService) Apply(userID int64, accountNumber string, amount, rate decimal.Decimal, durationMonths int) (*domain.Loan, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}
	if rate.IsNegative() {
		return nil, errors.NewAppError(errors.InvalidInput, "interest rate cannot be negative")
	}
	if durationMonths <= 0 {
		return nil, errors.NewAppError(errors.InvalidInput, "duration must be at least one month")
	}

	account, err := s.store.Accounts().GetByNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, errors.ErrAccountNotFound
	}
	if account.Status == domain.AccountStatusClosed {
		return nil, errors.ErrAccountClosed
	}

	loan := &domain.Loan{
		UserID:         userID,
		AccountID:      account.ID,
		Amount:         amount,
		InterestRate:   rate,
		DurationMonths: durationMonths,
		Status:         domain.LoanStatusPending,
	}
	if err := s.store.Loans().Create(loan); err != nil {
		return nil, err
	}

	s.logger.Info("Loan application received", "loan_id", loan.ID, "user_id", userID, "amount", amount)
	return loan, nil
}

// Approve moves a pending loan to approved: credits the loan account with the
// principal, fixes TotalPayable = amount + amount*rate/100 and the return
// date at 30 days per month of duration. Approving an already-approved loan
// is a no-op so a duplicate request can never credit the account twice.
func (s *LoanService) Approve(loanID int64, asOf time.Time) (*domain.Loan, error) {
	var approved *domain.Loan
	err := s.store.WithTransaction(func(store domain.Store) error {
		loan, err := store.Loans().GetByIDForUpdate(loanID)
		if err != nil {
			return err
		}

		if loan.Status == domain.LoanStatusApproved {
			approved = loan
			return nil
		}
		if !loan.Status.CanTransitionTo(domain.LoanStatusApproved) {
			return errors.NewInvalidTransition(string(loan.Status), string(domain.LoanStatusApproved))
		}

		account, err := store.Accounts().GetByIDForUpdate(loan.AccountID)
		if err != nil {
			return err
		}
		if account.Status == domain.AccountStatusClosed {
			return errors.ErrAccountClosed
		}

		account.Balance = account.Balance.Add(loan.Amount)
		if err := store.Accounts().UpdateBalance(account.ID, account.Balance); err != nil {
			return err
		}

		if err := store.Transactions().Create(&domain.Transaction{
			AccountID:   account.ID,
			Type:        domain.TransactionTypeDeposit,
			Amount:      loan.Amount,
			Reference:   uuid.New(),
			Description: fmt.Sprintf("loan #%d disbursement", loan.ID),
		}); err != nil {
			return err
		}

		totalPayable := loan.Amount.Add(loan.Amount.Mul(loan.InterestRate).Div(hundred)).Round(2)
		returnDate := asOf.AddDate(0, 0, 30*loan.DurationMonths)

		loan.Status = domain.LoanStatusApproved
		loan.TotalPayable = decimal.NewNullDecimal(totalPayable)
		loan.ReturnDate = &returnDate
		if err := store.Loans().Update(loan); err != nil {
			return err
		}

		approved = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loan approved", "loan_id", approved.ID, "total_payable", approved.TotalPayable.Decimal)
	return approved, nil
}

// Reject moves a pending loan to rejected. No balance effect. Rejecting an
// already-rejected loan is a no-op.
func (s *LoanService) Reject(loanID int64) (*domain.Loan, error) {
	var rejected *domain.Loan
	err := s.store.WithTransaction(func(store domain.Store) error {
		loan, err := store.Loans().GetByIDForUpdate(loanID)
		if err != nil {
			return err
		}

		if loan.Status == domain.LoanStatusRejected {
			rejected = loan
			return nil
		}
		if !loan.Status.CanTransitionTo(domain.LoanStatusRejected) {
			return errors.NewInvalidTransition(string(loan.Status), string(domain.LoanStatusRejected))
		}

		loan.Status = domain.LoanStatusRejected
		if err := store.Loans().Update(loan); err != nil {
			return err
		}

		rejected = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loan rejected", "loan_id", rejected.ID)
	return rejected, nil
}

// Repay applies a repayment to an approved loan: debits the loan account,
// decrements the payable total, and flips the loan to repaid in the same
// transaction when the payable reaches exactly zero.
func (s *LoanService) Repay(userID, loanID int64, amount decimal.Decimal) (*domain.Loan, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}

	var repaid *domain.Loan
	err := s.store.WithTransaction(func(store domain.Store) error {
		loan, err := store.Loans().GetByIDForUpdate(loanID)
		if err != nil {
			return err
		}
		if loan.UserID != userID {
			return errors.ErrLoanNotFound
		}
		if loan.Status != domain.LoanStatusApproved {
			return errors.NewAppErrorf(errors.InvalidStateTransition,
				"loan is %s, repayment requires an approved loan", loan.Status)
		}
		if amount.GreaterThan(loan.TotalPayable.Decimal) {
			return errors.ErrAmountExceedsPayable
		}

		account, err := store.Accounts().GetByIDForUpdate(loan.AccountID)
		if err != nil {
			return err
		}
		if account.Status == domain.AccountStatusClosed {
			return errors.ErrAccountClosed
		}
		if account.Balance.LessThan(amount) {
			return errors.ErrInsufficientFunds
		}

		account.Balance = account.Balance.Sub(amount)
		if err := store.Accounts().UpdateBalance(account.ID, account.Balance); err != nil {
			return err
		}

		if err := store.Transactions().Create(&domain.Transaction{
			AccountID:   account.ID,
			Type:        domain.TransactionTypeRepayment,
			Amount:      amount,
			Reference:   uuid.New(),
			Description: fmt.Sprintf("repayment for loan #%d", loan.ID),
		}); err != nil {
			return err
		}

		loan.TotalPayable = decimal.NewNullDecimal(loan.TotalPayable.Decimal.Sub(amount))
		if loan.TotalPayable.Decimal.IsZero() {
			loan.Status = domain.LoanStatusRepaid
		}
		if err := store.Loans().Update(loan); err != nil {
			return err
		}

		repaid = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Repayment applied", "loan_id", repaid.ID, "amount", amount,
		"remaining", repaid.TotalPayable.Decimal, "status", repaid.Status)
	return repaid, nil
}

// Get returns a loan if it belongs to the given user.
func (s *LoanService) Get(userID, loanID int64) (*domain.Loan, error) {
	loan, err := s.store.Loans().GetByID(loanID)
	if err != nil {
		return nil, err
	}
	if loan.UserID != userID {
		return nil, errors.ErrLoanNotFound
	}
	return loan, nil
}

func (s *LoanService) ListForUser(userID int64) ([]domain.Loan, error) {
	return s.store.Loans().ListByUser(userID)
}

// ListByStatus is used by the admin surface to review pending applications.
func (s *LoanService) ListByStatus(status domain.LoanStatus) ([]domain.Loan, error) {
	return s.store.Loans().ListByStatus(status)
}

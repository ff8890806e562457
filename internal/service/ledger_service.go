package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// Savings accounts earn a fixed 5% annual rate, accrued daily.
var (
	annualInterestRate = decimal.New(5, -2)
	daysPerYear        = decimal.NewFromInt(365)
)

// LedgerService applies every balance mutation: deposits, withdrawals,
// transfers and interest accrual. Each operation runs in a single store
// transaction that re-reads the account row with a lock before touching it,
// and appends one immutable transaction record per affected account.
type LedgerService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewLedgerService(store domain.Store, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger,
	}
}

// mutableAccount loads the caller's account with a row lock and verifies it
// accepts ledger operations.
func mutableAccount(store domain.Store, userID int64, number string) (*domain.Account, error) {
	account, err := store.Accounts().GetByNumberForUpdate(number)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		// Do not reveal other users' account numbers.
		return nil, errors.ErrAccountNotFound
	}
	if account.Status == domain.AccountStatusClosed {
		return nil, errors.ErrAccountClosed
	}
	return account, nil
}

func (s *LedgerService) Deposit(userID int64, accountNumber string, amount decimal.Decimal, description string) (*domain.Account, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}
	if description == "" {
		description = "deposit"
	}

	var updated *domain.Account
	err := s.store.WithTransaction(func(store domain.Store) error {
		account, err := mutableAccount(store, userID, accountNumber)
		if err != nil {
			return err
		}

		account.Balance = account.Balance.Add(amount)
		if err := store.Accounts().UpdateBalance(account.ID, account.Balance); err != nil {
			return err
		}

		if err := store.Transactions().Create(&domain.Transaction{
			AccountID:   account.ID,
			Type:        domain.TransactionTypeDeposit,
			Amount:      amount,
			Reference:   uuid.New(),
			Description: description,
		}); err != nil {
			return err
		}

		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deposit applied", "account_number", accountNumber, "amount", amount)
	return updated, nil
}

func (s *LedgerService) Withdraw(userID int64, accountNumber string, amount decimal.Decimal, description string) (*domain.Account, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}
	if description == "" {
		description = "withdrawal"
	}

	var updated *domain.Account
	err := s.store.WithTransaction(func(store domain.Store) error {
		account, err := mutableAccount(store, userID, accountNumber)
		if err != nil {
			return err
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
			Type:        domain.TransactionTypeWithdrawal,
			Amount:      amount,
			Reference:   uuid.New(),
			Description: description,
		}); err != nil {
			return err
		}

		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawal applied", "account_number", accountNumber, "amount", amount)
	return updated, nil
}

// Transfer debits the caller's account and credits the destination. Both
// balance writes and both transaction records commit as one unit; the two
// records share a reference and name the counterparty in their descriptions.
func (s *LedgerService) Transfer(userID int64, fromNumber, toNumber string, amount decimal.Decimal) (*domain.Account, uuid.UUID, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, uuid.Nil, errors.ErrInvalidAmount
	}
	if fromNumber == toNumber {
		return nil, uuid.Nil, errors.ErrSameAccountTransfer
	}

	ref := uuid.New()
	var updated *domain.Account
	err := s.store.WithTransaction(func(store domain.Store) error {
		// Lock in account-number order so two opposing transfers cannot
		// deadlock on each other's rows.
		first, second := fromNumber, toNumber
		if second < first {
			first, second = second, first
		}
		locked := make(map[string]*domain.Account, 2)
		for _, number := range []string{first, second} {
			account, err := store.Accounts().GetByNumberForUpdate(number)
			if err != nil {
				return err
			}
			locked[number] = account
		}

		source, dest := locked[fromNumber], locked[toNumber]
		if source.UserID != userID {
			return errors.ErrAccountNotFound
		}
		if source.Status == domain.AccountStatusClosed || dest.Status == domain.AccountStatusClosed {
			return errors.ErrAccountClosed
		}
		if source.Balance.LessThan(amount) {
			return errors.ErrInsufficientFunds
		}

		source.Balance = source.Balance.Sub(amount)
		dest.Balance = dest.Balance.Add(amount)

		if err := store.Accounts().UpdateBalance(source.ID, source.Balance); err != nil {
			return err
		}
		if err := store.Accounts().UpdateBalance(dest.ID, dest.Balance); err != nil {
			return err
		}

		if err := store.Transactions().Create(&domain.Transaction{
			AccountID:   source.ID,
			Type:        domain.TransactionTypeTransfer,
			Amount:      amount,
			Reference:   ref,
			Description: "transfer to " + dest.Number,
		}); err != nil {
			return err
		}
		if err := store.Transactions().Create(&domain.Transaction{
			AccountID:   dest.ID,
			Type:        domain.TransactionTypeTransfer,
			Amount:      amount,
			Reference:   ref,
			Description: "transfer from " + source.Number,
		}); err != nil {
			return err
		}

		updated = source
		return nil
	})
	if err != nil {
		return nil, uuid.Nil, err
	}

	s.logger.Info("Transfer completed", "from", fromNumber, "to", toNumber, "amount", amount, "reference", ref)
	return updated, ref, nil
}

// AccrueInterest posts simple daily interest to a savings account for the
// whole days elapsed since the last accrual (or account creation). Accounts
// that are not savings, or hold no positive balance, are left untouched. A
// zero-amount accrual advances the accrual timestamp without emitting a
// transaction record.
func (s *LedgerService) AccrueInterest(accountNumber string, asOf time.Time) (decimal.Decimal, error) {
	var accrued decimal.Decimal
	err := s.store.WithTransaction(func(store domain.Store) error {
		account, err := store.Accounts().GetByNumberForUpdate(accountNumber)
		if err != nil {
			return err
		}
		if account.Status == domain.AccountStatusClosed {
			return errors.ErrAccountClosed
		}
		if account.Type != domain.AccountTypeSavings || !account.Balance.IsPositive() {
			return nil
		}

		since := account.CreatedAt
		if account.LastInterestAt != nil {
			since = *account.LastInterestAt
		}
		days := int64(asOf.Sub(since).Hours() / 24)
		if days < 0 {
			days = 0
		}

		interest := account.Balance.
			Mul(annualInterestRate).
			Mul(decimal.NewFromInt(days)).
			Div(daysPerYear).
			Round(2)

		newBalance := account.Balance.Add(interest)
		if err := store.Accounts().SetInterestAccrued(account.ID, newBalance, asOf); err != nil {
			return err
		}

		if interest.IsPositive() {
			if err := store.Transactions().Create(&domain.Transaction{
				AccountID:   account.ID,
				Type:        domain.TransactionTypeInterest,
				Amount:      interest,
				Reference:   uuid.New(),
				Description: "interest accrual",
			}); err != nil {
				return err
			}
		}

		accrued = interest
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return accrued, nil
}

// AccrueAllInterest runs one accrual per active savings account, each in its
// own transaction so a single failure does not roll the batch back.
func (s *LedgerService) AccrueAllInterest(asOf time.Time) (int, decimal.Decimal, error) {
	accounts, err := s.store.Accounts().ListActiveSavings()
	if err != nil {
		return 0, decimal.Zero, err
	}

	processed := 0
	total := decimal.Zero
	for _, account := range accounts {
		accrued, err := s.AccrueInterest(account.Number, asOf)
		if err != nil {
			s.logger.Error("Interest accrual failed", "account_number", account.Number, "error", err)
			continue
		}
		processed++
		total = total.Add(accrued)
	}

	s.logger.Info("Interest accrual run finished", "accounts", processed, "total_interest", total)
	return processed, total, nil
}

package service

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// AccountService opens, closes and reads accounts. Balance mutations live in
// LedgerService; this service never touches a balance after creation.
type AccountService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewAccountService(store domain.Store, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		logger: logger,
	}
}

// newAccountNumber returns a 14-digit account number. Uniqueness is enforced
// by the store; Open retries on the rare collision.
func newAccountNumber() string {
	return fmt.Sprintf("30%012d", rand.Int64N(1_000_000_000_000))
}

func (s *AccountService) Open(userID int64, accountType domain.AccountType) (*domain.Account, error) {
	if !accountType.Valid() {
		return nil, errors.NewAppErrorf(errors.InvalidInput, "unknown account type %q", accountType)
	}

	account := &domain.Account{
		UserID:  userID,
		Type:    accountType,
		Status:  domain.AccountStatusActive,
		Balance: decimal.Zero,
	}

	for attempt := 0; attempt < 3; attempt++ {
		account.Number = newAccountNumber()
		err := s.store.Accounts().Create(account)
		if err == nil {
			s.logger.Info("Account opened", "account_id", account.ID, "user_id", userID, "type", accountType)
			return account, nil
		}
		if appErr, ok := err.(*errors.AppError); !ok || appErr.Code != errors.DuplicateAccount {
			return nil, err
		}
	}
	return nil, errors.NewAppError(errors.InternalError, "could not allocate a unique account number")
}

func (s *AccountService) Get(userID int64, number string) (*domain.Account, error) {
	account, err := s.store.Accounts().GetByNumber(number)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, errors.ErrAccountNotFound
	}
	return account, nil
}

func (s *AccountService) ListForUser(userID int64) ([]domain.Account, error) {
	return s.store.Accounts().ListByUser(userID)
}

// Close marks the account closed; every later ledger operation against it
// fails with AccountClosed. Closing an already-closed account is a no-op.
func (s *AccountService) Close(userID int64, number string) (*domain.Account, error) {
	var closed *domain.Account
	err := s.store.WithTransaction(func(store domain.Store) error {
		account, err := store.Accounts().GetByNumberForUpdate(number)
		if err != nil {
			return err
		}
		if account.UserID != userID {
			return errors.ErrAccountNotFound
		}
		if account.Status == domain.AccountStatusClosed {
			closed = account
			return nil
		}

		account.Status = domain.AccountStatusClosed
		if err := store.Accounts().UpdateStatus(account.ID, account.Status); err != nil {
			return err
		}
		closed = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account closed", "account_number", number)
	return closed, nil
}

// Statement returns the account and its full transaction history.
func (s *AccountService) Statement(userID int64, number string) (*domain.Account, []domain.Transaction, error) {
	account, err := s.Get(userID, number)
	if err != nil {
		return nil, nil, err
	}

	transactions, err := s.store.Transactions().ListByAccount(account.ID)
	if err != nil {
		return nil, nil, err
	}
	return account, transactions, nil
}

package repository

import (
	"database/sql"
	"log/slog"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// Store is the SQL-backed unit of work. The zero-argument repository accessors
// share whatever executor the Store currently holds: the root *sql.DB outside
// a transaction, or a single *sql.Tx inside WithTransaction.
type Store struct {
	executor SQLExecutor
	logger   *slog.Logger
}

var _ domain.Store = (*Store)(nil)

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		executor: db,
		logger:   logger,
	}
}

func (s *Store) Accounts() domain.AccountRepository {
	return NewAccountRepository(s.executor, s.logger)
}

func (s *Store) Transactions() domain.TransactionRepository {
	return NewTransactionRepository(s.executor, s.logger)
}

func (s *Store) Loans() domain.LoanRepository {
	return NewLoanRepository(s.executor, s.logger)
}

func (s *Store) Users() domain.UserRepository {
	return NewUserRepository(s.executor, s.logger)
}

// WithTransaction executes fn within a single database transaction. Nested
// calls are rejected: only the root store can begin a transaction.
func (s *Store) WithTransaction(fn func(domain.Store) error) error {
	db, ok := s.executor.(*sql.DB)
	if !ok {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	txStore := &Store{
		executor: &TxWrapper{Tx: tx},
		logger:   s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

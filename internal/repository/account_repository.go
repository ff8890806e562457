package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

const accountColumns = `id, user_id, account_number, account_type, status, balance, created_at, last_interest_at`

func (r *accountRepository) Create(account *domain.Account) error {
	query := `
		INSERT INTO accounts (user_id, account_number, account_type, status, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		account.UserID,
		account.Number,
		string(account.Type),
		string(account.Status),
		account.Balance.String(),
		now,
	).Scan(&account.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				r.logger.Warn("Duplicate account number", "account_number", account.Number)
				return errors.ErrDuplicateAccount
			}
		}
		r.logger.Error("Failed to create account", "account_number", account.Number, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create account").WithDetails(err.Error())
	}

	account.CreatedAt = now
	r.logger.Info("Account created", "account_id", account.ID, "account_number", account.Number)
	return nil
}

func (r *accountRepository) GetByID(id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(query, id)
}

func (r *accountRepository) GetByIDForUpdate(id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.scanAccount(query, id)
}

func (r *accountRepository) GetByNumber(number string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return r.scanAccount(query, number)
}

func (r *accountRepository) GetByNumberForUpdate(number string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1 FOR UPDATE`
	return r.scanAccount(query, number)
}

func (r *accountRepository) scanAccount(query string, arg interface{}) (*domain.Account, error) {
	var account domain.Account
	var balanceStr string
	var accountType, status string
	var lastInterestAt sql.NullTime

	err := r.db.QueryRow(query, arg).Scan(
		&account.ID,
		&account.UserID,
		&account.Number,
		&accountType,
		&status,
		&balanceStr,
		&account.CreatedAt,
		&lastInterestAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Account not found", "account", arg)
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "account", arg, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get account").WithDetails(err.Error())
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "account", arg, "balance_str", balanceStr, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}

	account.Type = domain.AccountType(accountType)
	account.Status = domain.AccountStatus(status)
	account.Balance = balance
	if lastInterestAt.Valid {
		t := lastInterestAt.Time
		account.LastInterestAt = &t
	}
	return &account, nil
}

func (r *accountRepository) UpdateBalance(id int64, balance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1 WHERE id = $2`

	result, err := r.db.Exec(query, balance.String(), id)
	if err != nil {
		r.logger.Error("Failed to update account balance", "account_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update account balance").WithDetails(err.Error())
	}

	return r.requireRow(result, id)
}

func (r *accountRepository) UpdateStatus(id int64, status domain.AccountStatus) error {
	query := `UPDATE accounts SET status = $1 WHERE id = $2`

	result, err := r.db.Exec(query, string(status), id)
	if err != nil {
		r.logger.Error("Failed to update account status", "account_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update account status").WithDetails(err.Error())
	}

	return r.requireRow(result, id)
}

func (r *accountRepository) SetInterestAccrued(id int64, balance decimal.Decimal, accruedAt time.Time) error {
	query := `UPDATE accounts SET balance = $1, last_interest_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, balance.String(), accruedAt, id)
	if err != nil {
		r.logger.Error("Failed to record interest accrual", "account_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to record interest accrual").WithDetails(err.Error())
	}

	return r.requireRow(result, id)
}

func (r *accountRepository) requireRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("No account found to update", "account_id", id)
		return errors.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) ListByUser(userID int64) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY id`
	return r.listAccounts(query, userID)
}

func (r *accountRepository) ListActiveSavings() ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_type = $1 AND status = $2 ORDER BY id`
	return r.listAccounts(query, string(domain.AccountTypeSavings), string(domain.AccountStatusActive))
}

func (r *accountRepository) listAccounts(query string, args ...interface{}) ([]domain.Account, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list accounts").WithDetails(err.Error())
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		var balanceStr string
		var accountType, status string
		var lastInterestAt sql.NullTime

		if err := rows.Scan(
			&account.ID,
			&account.UserID,
			&account.Number,
			&accountType,
			&status,
			&balanceStr,
			&account.CreatedAt,
			&lastInterestAt,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan account").WithDetails(err.Error())
		}

		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
		}

		account.Type = domain.AccountType(accountType)
		account.Status = domain.AccountStatus(status)
		account.Balance = balance
		if lastInterestAt.Valid {
			t := lastInterestAt.Time
			account.LastInterestAt = &t
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

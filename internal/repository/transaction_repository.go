package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *transactionRepository) Create(tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (account_id, type, amount, reference, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		tx.AccountID,
		string(tx.Type),
		tx.Amount.String(),
		tx.Reference,
		tx.Description,
		now,
	).Scan(&tx.ID)

	if err != nil {
		r.logger.Error("Failed to create transaction",
			"account_id", tx.AccountID,
			"type", tx.Type,
			"amount", tx.Amount,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to create transaction").WithDetails(err.Error())
	}

	tx.CreatedAt = now
	r.logger.Info("Transaction recorded", "transaction_id", tx.ID, "account_id", tx.AccountID, "type", tx.Type)
	return nil
}

func (r *transactionRepository) ListByAccount(accountID int64) ([]domain.Transaction, error) {
	query := `
		SELECT id, account_id, type, amount, reference, description, created_at
		FROM transactions WHERE account_id = $1 ORDER BY id
	`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		r.logger.Error("Failed to list transactions", "account_id", accountID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var amountStr string
		var txType string
		var description sql.NullString

		if err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&txType,
			&amountStr,
			&tx.Reference,
			&description,
			&tx.CreatedAt,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transaction").WithDetails(err.Error())
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
		}

		tx.Type = domain.TransactionType(txType)
		tx.Amount = amount
		tx.Description = description.String
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type loanRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewLoanRepository(db SQLExecutor, logger *slog.Logger) domain.LoanRepository {
	return &loanRepository{
		db:     db,
		logger: logger,
	}
}

const loanColumns = `id, user_id, account_id, amount, interest_rate, duration_months, status, total_payable, return_date, created_at`

func (r *loanRepository) Create(loan *domain.Loan) error {
	query := `
		INSERT INTO loans (user_id, account_id, amount, interest_rate, duration_months, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		loan.UserID,
		loan.AccountID,
		loan.Amount.String(),
		loan.InterestRate.String(),
		loan.DurationMonths,
		string(loan.Status),
		now,
	).Scan(&loan.ID)

	if err != nil {
		r.logger.Error("Failed to create loan", "user_id", loan.UserID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create loan").WithDetails(err.Error())
	}

	loan.CreatedAt = now
	r.logger.Info("Loan created", "loan_id", loan.ID, "user_id", loan.UserID, "amount", loan.Amount)
	return nil
}

func (r *loanRepository) GetByID(id int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return r.scanLoan(r.db.QueryRow(query, id), id)
}

func (r *loanRepository) GetByIDForUpdate(id int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	return r.scanLoan(r.db.QueryRow(query, id), id)
}

func (r *loanRepository) scanLoan(row *sql.Row, id int64) (*domain.Loan, error) {
	var loan domain.Loan
	var amountStr, rateStr, status string
	var totalPayable sql.NullString
	var returnDate sql.NullTime

	err := row.Scan(
		&loan.ID,
		&loan.UserID,
		&loan.AccountID,
		&amountStr,
		&rateStr,
		&loan.DurationMonths,
		&status,
		&totalPayable,
		&returnDate,
		&loan.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Loan not found", "loan_id", id)
			return nil, errors.ErrLoanNotFound
		}
		r.logger.Error("Failed to get loan", "loan_id", id, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get loan").WithDetails(err.Error())
	}

	if err := fillLoan(&loan, amountStr, rateStr, status, totalPayable, returnDate); err != nil {
		return nil, err
	}
	return &loan, nil
}

func fillLoan(loan *domain.Loan, amountStr, rateStr, status string, totalPayable sql.NullString, returnDate sql.NullTime) error {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to parse loan amount").WithDetails(err.Error())
	}
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to parse interest rate").WithDetails(err.Error())
	}

	loan.Amount = amount
	loan.InterestRate = rate
	loan.Status = domain.LoanStatus(status)

	if totalPayable.Valid {
		payable, err := decimal.NewFromString(totalPayable.String)
		if err != nil {
			return errors.NewAppError(errors.InternalError, "failed to parse total payable").WithDetails(err.Error())
		}
		loan.TotalPayable = decimal.NewNullDecimal(payable)
	}
	if returnDate.Valid {
		t := returnDate.Time
		loan.ReturnDate = &t
	}
	return nil
}

func (r *loanRepository) Update(loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET status = $1, total_payable = $2, return_date = $3
		WHERE id = $4
	`

	var totalPayable interface{}
	if loan.TotalPayable.Valid {
		totalPayable = loan.TotalPayable.Decimal.String()
	}
	var returnDate interface{}
	if loan.ReturnDate != nil {
		returnDate = *loan.ReturnDate
	}

	result, err := r.db.Exec(query, string(loan.Status), totalPayable, returnDate, loan.ID)
	if err != nil {
		r.logger.Error("Failed to update loan", "loan_id", loan.ID, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update loan").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		r.logger.Warn("No loan found to update", "loan_id", loan.ID)
		return errors.ErrLoanNotFound
	}

	r.logger.Info("Loan updated", "loan_id", loan.ID, "status", loan.Status)
	return nil
}

func (r *loanRepository) ListByUser(userID int64) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = $1 ORDER BY id`
	return r.listLoans(query, userID)
}

func (r *loanRepository) ListByStatus(status domain.LoanStatus) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = $1 ORDER BY id`
	return r.listLoans(query, string(status))
}

func (r *loanRepository) listLoans(query string, args ...interface{}) ([]domain.Loan, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list loans", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list loans").WithDetails(err.Error())
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		var loan domain.Loan
		var amountStr, rateStr, status string
		var totalPayable sql.NullString
		var returnDate sql.NullTime

		if err := rows.Scan(
			&loan.ID,
			&loan.UserID,
			&loan.AccountID,
			&amountStr,
			&rateStr,
			&loan.DurationMonths,
			&status,
			&totalPayable,
			&returnDate,
			&loan.CreatedAt,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan loan").WithDetails(err.Error())
		}

		if err := fillLoan(&loan, amountStr, rateStr, status, totalPayable, returnDate); err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, rows.Err()
}

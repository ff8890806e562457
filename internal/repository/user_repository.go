package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type userRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewUserRepository(db SQLExecutor, logger *slog.Logger) domain.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) Create(user *domain.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(query, user.Name, user.Email, user.PasswordHash, now).Scan(&user.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				r.logger.Warn("Duplicate email on signup", "email", user.Email)
				return errors.ErrDuplicateEmail
			}
		}
		r.logger.Error("Failed to create user", "email", user.Email, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create user").WithDetails(err.Error())
	}

	user.CreatedAt = now
	r.logger.Info("User created", "user_id", user.ID)
	return nil
}

func (r *userRepository) GetByID(id int64) (*domain.User, error) {
	query := `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`
	return r.scanUser(query, id)
}

func (r *userRepository) GetByEmail(email string) (*domain.User, error) {
	query := `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`
	return r.scanUser(query, email)
}

func (r *userRepository) scanUser(query string, arg interface{}) (*domain.User, error) {
	var user domain.User

	err := r.db.QueryRow(query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrUserNotFound
		}
		r.logger.Error("Failed to get user", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get user").WithDetails(err.Error())
	}

	return &user, nil
}

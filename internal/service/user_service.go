package service

import (
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type UserService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewUserService(store domain.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

func (s *UserService) Signup(name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "name and email are required")
	}
	if len(password) < 8 {
		return nil, errors.NewAppError(errors.InvalidInput, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to hash password").WithDetails(err.Error())
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.Users().Create(user); err != nil {
		return nil, err
	}

	s.logger.Info("User signed up", "user_id", user.ID)
	return user, nil
}

func (s *UserService) Login(email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.Users().GetByEmail(email)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.UserNotFound {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) Get(userID int64) (*domain.User, error) {
	return s.store.Users().GetByID(userID)
}

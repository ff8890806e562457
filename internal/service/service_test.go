package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) (*repository.MemStore, *slog.Logger) {
	t.Helper()
	return repository.NewMemStore(), testLogger()
}

func seedUser(t *testing.T, store *repository.MemStore, email string) *domain.User {
	t.Helper()
	user := &domain.User{Name: "Test User", Email: email, PasswordHash: "x"}
	require.NoError(t, store.Users().Create(user))
	return user
}

func seedAccount(t *testing.T, store *repository.MemStore, userID int64, number string, accountType domain.AccountType, balance string, createdAt time.Time) *domain.Account {
	t.Helper()
	account := &domain.Account{
		UserID:    userID,
		Number:    number,
		Type:      accountType,
		Status:    domain.AccountStatusActive,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: createdAt,
	}
	require.NoError(t, store.Accounts().Create(account))
	return account
}

func accountBalance(t *testing.T, store *repository.MemStore, number string) decimal.Decimal {
	t.Helper()
	account, err := store.Accounts().GetByNumber(number)
	require.NoError(t, err)
	return account.Balance
}

func requireDecimalEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got),
		"want %s, got %s", want, got.String())
}

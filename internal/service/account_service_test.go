package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

func TestOpenAccountGeneratesNumber(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")

	svc := NewAccountService(store, logger)

	account, err := svc.Open(user.ID, domain.AccountTypeSavings)
	require.NoError(t, err)

	assert.Len(t, account.Number, 14)
	assert.Equal(t, domain.AccountStatusActive, account.Status)
	assert.Equal(t, domain.AccountTypeSavings, account.Type)
	require.True(t, account.Balance.IsZero())

	other, err := svc.Open(user.ID, domain.AccountTypeCurrent)
	require.NoError(t, err)
	assert.NotEqual(t, account.Number, other.Number)
}

func TestOpenAccountRejectsUnknownType(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")

	svc := NewAccountService(store, logger)

	_, err := svc.Open(user.ID, domain.AccountType("checking"))
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.InvalidInput, appErr.Code)
}

func TestCloseAccountIsIdempotent(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeCurrent, "0.00", time.Now())

	svc := NewAccountService(store, logger)

	closed, err := svc.Close(user.ID, "30000000000001")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusClosed, closed.Status)

	again, err := svc.Close(user.ID, "30000000000001")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusClosed, again.Status)
}

func TestGetHidesOtherUsersAccounts(t *testing.T) {
	store, logger := newFixture(t)
	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	seedAccount(t, store, alice.ID, "30000000000001", domain.AccountTypeCurrent, "100.00", time.Now())

	svc := NewAccountService(store, logger)

	_, err := svc.Get(bob.ID, "30000000000001")
	require.ErrorIs(t, err, errors.ErrAccountNotFound)
}

func TestStatementListsHistory(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeCurrent, "100.00", time.Now())

	ledger := NewLedgerService(store, logger)
	_, err := ledger.Deposit(user.ID, "30000000000001", decimal.RequireFromString("50.00"), "payday")
	require.NoError(t, err)
	_, err = ledger.Withdraw(user.ID, "30000000000001", decimal.RequireFromString("20.00"), "")
	require.NoError(t, err)

	svc := NewAccountService(store, logger)

	account, transactions, err := svc.Statement(user.ID, "30000000000001")
	require.NoError(t, err)
	requireDecimalEqual(t, "130.00", account.Balance)

	require.Len(t, transactions, 2)
	assert.Equal(t, domain.TransactionTypeDeposit, transactions[0].Type)
	assert.Equal(t, "payday", transactions[0].Description)
	assert.Equal(t, domain.TransactionTypeWithdrawal, transactions[1].Type)
}

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

func TestDepositAddsBalanceAndRecord(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeCurrent, "100.00", time.Now())

	svc := NewLedgerService(store, logger)

	account, err := svc.Deposit(user.ID, "30000000000001", decimal.RequireFromString("25.50"), "")
	require.NoError(t, err)
	requireDecimalEqual(t, "125.50", account.Balance)

	transactions, err := store.Transactions().ListByAccount(account.ID)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, domain.TransactionTypeDeposit, transactions[0].Type)
	requireDecimalEqual(t, "25.50", transactions[0].Amount)
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeCurrent, "100.00", time.Now())

	svc := NewLedgerService(store, logger)

	for _, amount := range []string{"0", "-5.00"} {
		_, err := svc.Deposit(user.ID, "30000000000001", decimal.RequireFromString(amount), "")
		require.ErrorIs(t, err, errors.ErrInvalidAmount)
	}

	requireDecimalEqual(t, "100.00", accountBalance(t, store, "30000000000001"))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestWithdrawReducesBalance(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeCurrent, "100.00", time.Now())

	svc := NewLedgerService(store, logger)

	account, err := svc.Withdraw(user.ID, "30000000000001", decimal.RequireFromString("30.00"), "")
	require.NoError(t, err)
	requireDecimalEqual(t, "70.00", account.Balance)

	transactions, err := store.Transactions().ListByAccount(account.ID)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, domain.TransactionTypeWithdrawal, transactions[0].Type)
}

func TestWithdrawInsufficientFundsLeavesStateUntouched(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeCurrent, "100.00", time.Now())

	svc := NewLedgerService(store, logger)

	_, err := svc.Withdraw(user.ID, "30000000000001", decimal.RequireFromString("150.00"), "")
	require.ErrorIs(t, err, errors.ErrInsufficientFunds)

	requireDecimalEqual(t, "100.00", accountBalance(t, store, "30000000000001"))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestTransferConservesMoney(t *testing.T) {
	store, logger := newFixture(t)
	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	seedAccount(t, store, alice.ID, "30000000000001", domain.AccountTypeCurrent, "200.00", time.Now())
	seedAccount(t, store, bob.ID, "30000000000002", domain.AccountTypeCurrent, "50.00", time.Now())

	svc := NewLedgerService(store, logger)

	source, ref, err := svc.Transfer(alice.ID, "30000000000001", "30000000000002", decimal.RequireFromString("75.00"))
	require.NoError(t, err)
	requireDecimalEqual(t, "125.00", source.Balance)
	requireDecimalEqual(t, "125.00", accountBalance(t, store, "30000000000002"))

	total := accountBalance(t, store, "30000000000001").Add(accountBalance(t, store, "30000000000002"))
	requireDecimalEqual(t, "250.00", total)

	// Both legs recorded, sharing the reference and naming the counterparty.
	sourceTxs, err := store.Transactions().ListByAccount(source.ID)
	require.NoError(t, err)
	require.Len(t, sourceTxs, 1)
	assert.Equal(t, domain.TransactionTypeTransfer, sourceTxs[0].Type)
	assert.Equal(t, ref, sourceTxs[0].Reference)
	assert.Contains(t, sourceTxs[0].Description, "30000000000002")

	dest, err := store.Accounts().GetByNumber("30000000000002")
	require.NoError(t, err)
	destTxs, err := store.Transactions().ListByAccount(dest.ID)
	require.NoError(t, err)
	require.Len(t, destTxs, 1)
	assert.Equal(t, ref, destTxs[0].Reference)
	assert.Contains(t, destTxs[0].Description, "30000000000001")
}

func TestTransferToUnknownAccountFails(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeCurrent, "200.00", time.Now())

	svc := NewLedgerService(store, logger)

	_, _, err := svc.Transfer(user.ID, "30000000000001", "00000000000000", decimal.RequireFromString("50.00"))
	require.ErrorIs(t, err, errors.ErrAccountNotFound)

	requireDecimalEqual(t, "200.00", accountBalance(t, store, "30000000000001"))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestTransferInsufficientFunds(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeCurrent, "20.00", time.Now())
	seedAccount(t, store, user.ID, "30000000000002", domain.AccountTypeCurrent, "0.00", time.Now())

	svc := NewLedgerService(store, logger)

	_, _, err := svc.Transfer(user.ID, "30000000000001", "30000000000002", decimal.RequireFromString("50.00"))
	require.ErrorIs(t, err, errors.ErrInsufficientFunds)

	requireDecimalEqual(t, "20.00", accountBalance(t, store, "30000000000001"))
	requireDecimalEqual(t, "0.00", accountBalance(t, store, "30000000000002"))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestTransferSameAccountRejected(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeCurrent, "100.00", time.Now())

	svc := NewLedgerService(store, logger)

	_, _, err := svc.Transfer(user.ID, "30000000000001", "30000000000001", decimal.RequireFromString("10.00"))
	require.ErrorIs(t, err, errors.ErrSameAccountTransfer)
}

func TestClosedAccountRejectsMutations(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	account := seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeSavings, "100.00", time.Now())
	require.NoError(t, store.Accounts().UpdateStatus(account.ID, domain.AccountStatusClosed))

	svc := NewLedgerService(store, logger)
	amount := decimal.RequireFromString("10.00")

	_, err := svc.Deposit(user.ID, "30000000000001", amount, "")
	require.ErrorIs(t, err, errors.ErrAccountClosed)
	_, err = svc.Withdraw(user.ID, "30000000000001", amount, "")
	require.ErrorIs(t, err, errors.ErrAccountClosed)
	_, err = svc.AccrueInterest("30000000000001", time.Now())
	require.ErrorIs(t, err, errors.ErrAccountClosed)

	requireDecimalEqual(t, "100.00", accountBalance(t, store, "30000000000001"))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestAccrueInterestComputesDailyInterest(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	created := time.Now().AddDate(0, 0, -10)
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeSavings, "1000.00", created)

	svc := NewLedgerService(store, logger)

	asOf := time.Now()
	accrued, err := svc.AccrueInterest("30000000000001", asOf)
	require.NoError(t, err)

	// 1000 * 0.05 / 365 * 10 days = 1.3698... -> 1.37
	requireDecimalEqual(t, "1.37", accrued)
	requireDecimalEqual(t, "1001.37", accountBalance(t, store, "30000000000001"))

	account, err := store.Accounts().GetByNumber("30000000000001")
	require.NoError(t, err)
	require.NotNil(t, account.LastInterestAt)

	transactions, err := store.Transactions().ListByAccount(account.ID)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, domain.TransactionTypeInterest, transactions[0].Type)
}

func TestAccrueInterestZeroBalanceIsNoop(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	created := time.Now().AddDate(0, 0, -10)
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeSavings, "0.00", created)

	svc := NewLedgerService(store, logger)

	accrued, err := svc.AccrueInterest("30000000000001", time.Now())
	require.NoError(t, err)
	require.True(t, accrued.IsZero())

	account, err := store.Accounts().GetByNumber("30000000000001")
	require.NoError(t, err)
	assert.Nil(t, account.LastInterestAt)
	assert.Equal(t, 0, store.TransactionCount())
}

func TestAccrueInterestZeroDaysSuppressesRecord(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	now := time.Now()
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeSavings, "500.00", now)

	svc := NewLedgerService(store, logger)

	accrued, err := svc.AccrueInterest("30000000000001", now)
	require.NoError(t, err)
	require.True(t, accrued.IsZero())

	// The accrual timestamp advances but no zero-amount record is written.
	account, err := store.Accounts().GetByNumber("30000000000001")
	require.NoError(t, err)
	require.NotNil(t, account.LastInterestAt)
	assert.Equal(t, 0, store.TransactionCount())
	requireDecimalEqual(t, "500.00", account.Balance)
}

func TestAccrueInterestUsesLastAccrualTimestamp(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	created := time.Now().AddDate(0, 0, -30)
	account := seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeSavings, "1000.00", created)

	lastAccrual := time.Now().AddDate(0, 0, -5)
	require.NoError(t, store.Accounts().SetInterestAccrued(account.ID, account.Balance, lastAccrual))

	svc := NewLedgerService(store, logger)

	accrued, err := svc.AccrueInterest("30000000000001", time.Now())
	require.NoError(t, err)

	// Only the 5 days since the last accrual count: 1000 * 0.05 / 365 * 5 -> 0.68
	requireDecimalEqual(t, "0.68", accrued)
}

func TestAccrueInterestCurrentAccountIsNoop(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	created := time.Now().AddDate(0, 0, -10)
	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeCurrent, "1000.00", created)

	svc := NewLedgerService(store, logger)

	accrued, err := svc.AccrueInterest("30000000000001", time.Now())
	require.NoError(t, err)
	require.True(t, accrued.IsZero())
	requireDecimalEqual(t, "1000.00", accountBalance(t, store, "30000000000001"))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestAccrueAllInterestCoversActiveSavingsOnly(t *testing.T) {
	store, logger := newFixture(t)
	user := seedUser(t, store, "alice@example.com")
	created := time.Now().AddDate(0, 0, -10)

	seedAccount(t, store, user.ID, "30000000000001", domain.AccountTypeSavings, "1000.00", created)
	seedAccount(t, store, user.ID, "30000000000002", domain.AccountTypeSavings, "2000.00", created)
	seedAccount(t, store, user.ID, "30000000000003", domain.AccountTypeCurrent, "5000.00", created)
	closed := seedAccount(t, store, user.ID, "30000000000004", domain.AccountTypeSavings, "3000.00", created)
	require.NoError(t, store.Accounts().UpdateStatus(closed.ID, domain.AccountStatusClosed))

	svc := NewLedgerService(store, logger)

	processed, total, err := svc.AccrueAllInterest(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	// 1.37 + 2.74
	requireDecimalEqual(t, "4.11", total)
	requireDecimalEqual(t, "5000.00", accountBalance(t, store, "30000000000003"))
	requireDecimalEqual(t, "3000.00", accountBalance(t, store, "30000000000004"))
}

func TestLedgerHidesOtherUsersAccounts(t *testing.T) {
	store, logger := newFixture(t)
	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	seedAccount(t, store, alice.ID, "30000000000001", domain.AccountTypeCurrent, "100.00", time.Now())

	svc := NewLedgerService(store, logger)

	_, err := svc.Deposit(bob.ID, "30000000000001", decimal.RequireFromString("10.00"), "")
	require.ErrorIs(t, err, errors.ErrAccountNotFound)
	requireDecimalEqual(t, "100.00", accountBalance(t, store, "30000000000001"))
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-ledger/internal/errors"
)

func TestSignupAndLogin(t *testing.T) {
	store, logger := newFixture(t)
	svc := NewUserService(store, logger)

	user, err := svc.Signup("Alice", "Alice@Example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	logged, err := svc.Login("alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	store, logger := newFixture(t)
	svc := NewUserService(store, logger)

	_, err := svc.Signup("Alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Signup("Other Alice", "alice@example.com", "another-pass")
	require.ErrorIs(t, err, errors.ErrDuplicateEmail)
}

func TestSignupRejectsShortPassword(t *testing.T) {
	store, logger := newFixture(t)
	svc := NewUserService(store, logger)

	_, err := svc.Signup("Alice", "alice@example.com", "short")
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.InvalidInput, appErr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	store, logger := newFixture(t)
	svc := NewUserService(store, logger)

	_, err := svc.Signup("Alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Login("alice@example.com", "wrong-pass")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "s3cret-pass")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)
}

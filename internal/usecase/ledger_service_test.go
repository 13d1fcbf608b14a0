package usecase

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pilgrimtrader/internal/domain"
	"pilgrimtrader/internal/signing"
)

func newTestLedger() (*LedgerService, *memUserRepo, *memTransactionRepo) {
	userRepo := newMemUserRepo()
	txRepo := newMemTransactionRepo()
	signer := signing.NewSigner("test-secret", "test-signer")
	return NewLedgerService(userRepo, txRepo, passTxManager{}, signer), userRepo, txRepo
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger()

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "555-0101", "hash")
	require.NoError(t, err)

	assert.Equal(t, domain.UserStatusPending, user.Status)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, 0.0, user.Balance)
	assert.Equal(t, 0.0, user.Profit)
	assert.Len(t, user.AccountNumber, 10)
	assert.True(t, strings.HasPrefix(user.SerialNumber, "GPT-"))
	assert.Len(t, user.SerialNumber, 13)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger()

	_, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "Other Alice", "alice@example.com", "", "hash")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestCreateUserUniqueAccountNumbers(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		user, err := svc.CreateUser(ctx, "User", "user"+strconv.Itoa(i)+"@example.com", "", "hash")
		require.NoError(t, err)
		assert.False(t, seen[user.AccountNumber], "account number %s issued twice", user.AccountNumber)
		seen[user.AccountNumber] = true
	}
}

func TestApproveUserIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger()

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)

	approved, err := svc.ApproveUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusApproved, approved.Status)

	// Approving again is a no-op, not an error.
	again, err := svc.ApproveUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusApproved, again.Status)
}

func TestRejectUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger()

	user, err := svc.CreateUser(ctx, "Mallory", "mallory@example.com", "", "hash")
	require.NoError(t, err)

	rejected, err := svc.RejectUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusRejected, rejected.Status)
}

func TestUpdateBalance(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newTestLedger()

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)

	_, err = svc.UpdateBalance(ctx, user.ID, 500, DirectionCredit)
	require.NoError(t, err)

	updated, err := svc.UpdateBalance(ctx, user.ID, 200, DirectionDebit)
	require.NoError(t, err)
	assert.Equal(t, 300.0, updated.Balance)

	// A debit past zero fails and leaves the balance untouched.
	_, err = svc.UpdateBalance(ctx, user.ID, 1000, DirectionDebit)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	stored, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, stored.Balance)

	_, err = svc.UpdateBalance(ctx, user.ID, -5, DirectionCredit)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestUpdateProfit(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger()

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)

	updated, err := svc.UpdateProfit(ctx, user.ID, 25.5)
	require.NoError(t, err)
	assert.Equal(t, 25.5, updated.Profit)

	// Profit has no floor; losses accumulate below zero.
	updated, err = svc.UpdateProfit(ctx, user.ID, -100)
	require.NoError(t, err)
	assert.Equal(t, -74.5, updated.Profit)
	assert.Equal(t, 0.0, updated.Balance)
}

func TestDepositLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newTestLedger()

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)
	_, err = svc.ApproveUser(ctx, user.ID)
	require.NoError(t, err)

	tx, err := svc.CreateTransaction(ctx, user.ID, domain.KindDeposit, 1000, "bank", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	require.NotNil(t, tx.Signature)
	assert.NotEmpty(t, tx.Signature.Signature)

	// Pending deposits do not touch the balance.
	stored, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stored.Balance)

	require.NoError(t, svc.ProcessTransaction(ctx, tx.ID))

	stored, err = userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, stored.Balance)

	// Processing the same transaction twice must not double-credit.
	err = svc.ProcessTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionProcessed)

	stored, err = userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, stored.Balance)
}

func TestProcessWithdrawalInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, txRepo := newTestLedger()

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, user.ID, 100, DirectionCredit)
	require.NoError(t, err)

	tx, err := svc.CreateTransaction(ctx, user.ID, domain.KindWithdrawal, 500, "bank", nil)
	require.NoError(t, err)

	err = svc.ProcessTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// The failure is recorded on the transaction, the balance is untouched.
	stored, err := txRepo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Equal(t, "insufficient balance", *stored.FailureReason)
	require.NotNil(t, stored.ProcessingSignature)

	u, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, u.Balance)

	// A failed transaction is terminal.
	err = svc.ProcessTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionProcessed)
}

func TestProcessWithdrawalCovered(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newTestLedger()

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, user.ID, 1000, DirectionCredit)
	require.NoError(t, err)

	tx, err := svc.CreateTransaction(ctx, user.ID, domain.KindWithdrawal, 400, "bank", nil)
	require.NoError(t, err)
	require.NoError(t, svc.ProcessTransaction(ctx, tx.ID))

	u, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 600.0, u.Balance)
}

func TestRequestWithdrawalGuards(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger()

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)

	_, err = svc.RequestWithdrawal(ctx, user.ID, 100, "bank", "")
	assert.ErrorIs(t, err, domain.ErrNotApproved)

	_, err = svc.ApproveUser(ctx, user.ID)
	require.NoError(t, err)

	_, err = svc.RequestWithdrawal(ctx, user.ID, 0, "bank", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.RequestWithdrawal(ctx, user.ID, 100, "bank", "")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = svc.UpdateBalance(ctx, user.ID, 500, DirectionCredit)
	require.NoError(t, err)

	tx, err := svc.RequestWithdrawal(ctx, user.ID, 100, "bank", "send to my bank")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	assert.Equal(t, domain.KindWithdrawal, tx.Kind)
	require.NotNil(t, tx.Details)
	assert.Equal(t, "send to my bank", *tx.Details)
}

func TestTransferFunds(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newTestLedger()

	alice, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)
	bob, err := svc.CreateUser(ctx, "Bob", "bob@example.com", "", "hash")
	require.NoError(t, err)

	_, err = svc.UpdateBalance(ctx, alice.ID, 1000, DirectionCredit)
	require.NoError(t, err)

	record, err := svc.TransferFunds(ctx, alice.ID, bob.AccountNumber, 250)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusCompleted, record.Status)
	assert.Equal(t, domain.KindTransfer, record.Kind)
	require.NotNil(t, record.ToAccount)
	assert.Equal(t, bob.AccountNumber, *record.ToAccount)
	assert.NotNil(t, record.ProcessedAt)

	// Total funds are conserved.
	a, err := userRepo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	b, err := userRepo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 750.0, a.Balance)
	assert.Equal(t, 250.0, b.Balance)
	assert.Equal(t, 1000.0, a.Balance+b.Balance)
}

func TestTransferFundsRejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newTestLedger()

	alice, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)
	bob, err := svc.CreateUser(ctx, "Bob", "bob@example.com", "", "hash")
	require.NoError(t, err)
	_, err = svc.UpdateBalance(ctx, alice.ID, 100, DirectionCredit)
	require.NoError(t, err)

	_, err = svc.TransferFunds(ctx, alice.ID, bob.AccountNumber, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.TransferFunds(ctx, alice.ID, alice.AccountNumber, 50)
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)

	_, err = svc.TransferFunds(ctx, alice.ID, "0000000000", 50)
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)

	_, err = svc.TransferFunds(ctx, alice.ID, bob.AccountNumber, 500)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Nothing moved.
	a, err := userRepo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	b, err := userRepo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, a.Balance)
	assert.Equal(t, 0.0, b.Balance)
}

func TestRecordExternal(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, txRepo := newTestLedger()

	user, err := svc.CreateUser(ctx, "Admin", "admin@example.com", "", "hash")
	require.NoError(t, err)

	record, err := svc.RecordExternal(ctx, user.ID, domain.KindDeposit, 300, "platform", "MT-1001")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusCompleted, record.Status)
	require.NotNil(t, record.Reference)
	assert.Equal(t, "MT-1001", *record.Reference)

	u, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, u.Balance)

	found, err := txRepo.GetByReference(ctx, "MT-1001")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)

	// An external withdrawal past the balance changes nothing.
	_, err = svc.RecordExternal(ctx, user.ID, domain.KindWithdrawal, 1000, "platform", "MT-1002")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	u, err = userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, u.Balance)
	_, err = txRepo.GetByReference(ctx, "MT-1002")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSeedAdminIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger()

	admin, err := svc.SeedAdmin(ctx, "Administrator", "admin@example.com", "", "hash", 1000000)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.Equal(t, domain.UserStatusApproved, admin.Status)
	assert.Equal(t, 1000000.0, admin.Balance)

	again, err := svc.SeedAdmin(ctx, "Administrator", "admin@example.com", "", "hash", 1000000)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", string(hash))
	require.NoError(t, err)

	got, err := svc.AuthenticateByEmail(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	got, err = svc.AuthenticateByAccountNumber(ctx, user.AccountNumber, "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.AuthenticateByEmail(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.AuthenticateByEmail(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newTestLedger()

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "", "hash")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	_, err = userRepo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.DeleteUser(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

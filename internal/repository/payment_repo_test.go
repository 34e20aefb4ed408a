package repository_test

import (
	"context"
	"testing"

	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func starsPayment(chargeID string) *db.StarsPayment {
	return &db.StarsPayment{
		UserID:            1,
		ChargeID:          chargeID,
		Payload:           "plan_standard_1_1700000000",
		Currency:          "XTR",
		TotalAmount:       100,
		SearchesPurchased: 100,
	}
}

func TestConfirmPaymentCreditsOnce(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	payments := repository.NewPaymentRepository(gdb)
	ledger := repository.NewLedgerRepository(gdb)
	seedUser(t, gdb, 1, 3)

	require.NoError(t, payments.ConfirmPayment(ctx, starsPayment("chg-1")))

	balance, err := ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 103, balance)

	// same charge id replayed: rejected, no double credit
	err = payments.ConfirmPayment(ctx, starsPayment("chg-1"))
	assert.ErrorIs(t, err, apperr.ErrDuplicatePayment)

	balance, err = ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 103, balance)

	sum, err := ledger.Sum(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, balance, sum)

	exists, err := payments.ChargeExists(ctx, "chg-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestConfirmPaymentDistinctCharges(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	payments := repository.NewPaymentRepository(gdb)
	ledger := repository.NewLedgerRepository(gdb)
	seedUser(t, gdb, 1, 0)

	require.NoError(t, payments.ConfirmPayment(ctx, starsPayment("chg-1")))
	require.NoError(t, payments.ConfirmPayment(ctx, starsPayment("chg-2")))

	balance, err := ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 200, balance)
}

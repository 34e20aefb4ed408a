package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/db"
	"gorm.io/gorm"
)

// LedgerRepository owns the credit balance and its append-only
// transaction log. Every balance mutation pairs with a ledger row inside
// one DB transaction, so users.searches always equals the sum of the
// user's transaction amounts.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new repository bound to the given DB connection.
func NewLedgerRepository(database *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: database}
}

// Debit removes amount credits if the balance covers it.
//
// Behavior:
//   - Conditional UPDATE guarded by searches >= amount; zero rows
//     affected means insufficient credit and nothing is applied.
//   - The search_used ledger row commits atomically with the decrement.
//   - Storage failure fails closed: no partial application, no credit.
func (r *LedgerRepository) Debit(ctx context.Context, userID int64, amount int, description string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.User{}).
			Where("telegram_id = ? AND searches >= ?", userID, amount).
			UpdateColumn("searches", gorm.Expr("searches - ?", amount))
		if res.Error != nil {
			return fmt.Errorf("debit update: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.ErrInsufficientCredit
		}
		return tx.Create(&db.CreditTransaction{
			UserID:      userID,
			Amount:      -amount,
			Type:        db.TxSearchUsed,
			Description: description,
		}).Error
	})
}

// Credit adds amount credits and appends a ledger row atomically.
func (r *LedgerRepository) Credit(ctx context.Context, userID int64, amount int, txType, description string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return creditInTx(tx, userID, amount, txType, description)
	})
}

// creditInTx applies a credit inside an already-open transaction, so
// callers (payment confirmation, registration) can bundle it with their
// own writes.
func creditInTx(tx *gorm.DB, userID int64, amount int, txType, description string) error {
	res := tx.Model(&db.User{}).
		Where("telegram_id = ?", userID).
		UpdateColumn("searches", gorm.Expr("searches + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return tx.Create(&db.CreditTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
	}).Error
}

// Balance returns the cached balance column, 0 for unknown users.
func (r *LedgerRepository) Balance(ctx context.Context, userID int64) (int, error) {
	var user db.User
	err := r.db.WithContext(ctx).
		Select("searches").
		Where("telegram_id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return user.Searches, nil
}

// Sum aggregates the ledger for a user. Balance must always equal Sum;
// tests use this to verify the pairing invariant.
func (r *LedgerRepository) Sum(ctx context.Context, userID int64) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&db.CreditTransaction{}).
		Select("SUM(amount)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

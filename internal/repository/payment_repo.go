package repository

import (
	"context"
	"fmt"

	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/db"
	"gorm.io/gorm"
)

// PaymentRepository owns confirmed external payments. The unique charge
// id column is the exactly-once guard.
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new repository bound to the given DB connection.
func NewPaymentRepository(database *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: database}
}

// ChargeExists reports whether a payment with this charge id was already
// confirmed.
func (r *PaymentRepository) ChargeExists(ctx context.Context, chargeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.StarsPayment{}).
		Where("charge_id = ?", chargeID).
		Count(&count).Error
	return count > 0, err
}

// ConfirmPayment finalizes a payment exactly once: the payment row and
// the ledger credit commit in the same transaction. A duplicate charge
// id aborts with ErrDuplicatePayment before any credit is applied; the
// unique index backs this up if two confirms race.
func (r *PaymentRepository) ConfirmPayment(ctx context.Context, payment *db.StarsPayment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.StarsPayment{}).
			Where("charge_id = ?", payment.ChargeID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("replay check: %w", err)
		}
		if count > 0 {
			return apperr.ErrDuplicatePayment
		}

		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		description := fmt.Sprintf("Purchased %d searches with %d Stars",
			payment.SearchesPurchased, payment.TotalAmount)
		return creditInTx(tx, payment.UserID, payment.SearchesPurchased,
			db.TxStarsPurchase, description)
	})
}

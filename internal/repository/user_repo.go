package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ebisa/bunamatch/internal/db"
	"gorm.io/gorm"
)

// UserRepository owns user accounts.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Get fetches a user, nil if unknown.
func (r *UserRepository) Get(ctx context.Context, telegramID int64) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// CreateRegistered inserts a completed account together with its initial
// free-credit grant, one atomic unit so a new account can never exist
// without its ledger-backed starting balance.
func (r *UserRepository) CreateRegistered(ctx context.Context, user *db.User, initialCredits int) error {
	user.Searches = initialCredits
	user.RegistrationStep = db.RegStepCompleted
	user.TermsAccepted = true

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if initialCredits == 0 {
			return nil
		}
		return tx.Create(&db.CreditTransaction{
			UserID:      user.TelegramID,
			Amount:      initialCredits,
			Type:        db.TxInitialFree,
			Description: "Initial free searches",
		}).Error
	})
}

// UpdateLocation stores the user's last known coordinate.
func (r *UserRepository) UpdateLocation(ctx context.Context, telegramID int64, lat, lon float64) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("telegram_id = ?", telegramID).
		Updates(map[string]any{"latitude": lat, "longitude": lon}).Error
}

// UpdateField sets one of the user-editable profile columns.
func (r *UserRepository) UpdateField(ctx context.Context, telegramID int64, column string, value any) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("telegram_id = ?", telegramID).
		Update(column, value).Error
}

// SyncUsername refreshes the stored handle when it changed upstream.
func (r *UserRepository) SyncUsername(ctx context.Context, telegramID int64, username string) error {
	if username == "" {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("telegram_id = ? AND username <> ?", telegramID, username).
		Update("username", username).Error
}

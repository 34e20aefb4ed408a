package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ebisa/bunamatch/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateRepository owns the per-user conversation state rows. Handlers
// are stateless; whatever multi-step flow a user is in (registration,
// profile edits) lives here as a state name plus a JSON data blob.
type StateRepository struct {
	db *gorm.DB
}

// NewStateRepository creates a new repository bound to the given DB connection.
func NewStateRepository(database *gorm.DB) *StateRepository {
	return &StateRepository{db: database}
}

// Get returns the user's state name and decoded data blob. No state
// yields empty name, nil map, nil error.
func (r *StateRepository) Get(ctx context.Context, userID int64) (string, map[string]string, error) {
	var row db.UserState
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("get state: %w", err)
	}

	data := map[string]string{}
	if row.Data != "" {
		if err := json.Unmarshal([]byte(row.Data), &data); err != nil {
			// Corrupt blob: treat as no state rather than wedging the user.
			return "", nil, nil
		}
	}
	return row.State, data, nil
}

// Set upserts the user's state.
func (r *StateRepository) Set(ctx context.Context, userID int64, state string, data map[string]string) error {
	blob := ""
	if len(data) > 0 {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode state data: %w", err)
		}
		blob = string(b)
	}

	row := db.UserState{UserID: userID, State: state, Data: blob}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "data"}),
		}).
		Create(&row).Error
}

// Clear removes the user's state row. No-op if absent.
func (r *StateRepository) Clear(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&db.UserState{}).Error
}

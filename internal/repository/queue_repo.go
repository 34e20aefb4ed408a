package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ebisa/bunamatch/internal/db"
	"gorm.io/gorm"
)

// QueueRepository owns the search queue: one row per searching user,
// holding a snapshot of the attributes the finder matches on.
type QueueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new repository bound to the given DB connection.
func NewQueueRepository(database *gorm.DB) *QueueRepository {
	return &QueueRepository{db: database}
}

// Enqueue inserts a queue entry. The unique index on user_id rejects a
// second concurrent entry for the same user.
func (r *QueueRepository) Enqueue(ctx context.Context, entry *db.QueueEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

// Dequeue removes the user's entry if present and reports whether a row
// was actually removed. Racing a concurrent match is fine: whoever
// commits second sees zero rows and treats the user as no longer
// searching.
func (r *QueueRepository) Dequeue(ctx context.Context, userID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&db.QueueEntry{})
	if res.Error != nil {
		return false, fmt.Errorf("dequeue: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// InQueue reports whether the user currently has a queue entry.
func (r *QueueRepository) InQueue(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.QueueEntry{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

// Entry fetches a user's queue row, nil if not queued.
func (r *QueueRepository) Entry(ctx context.Context, userID int64) (*db.QueueEntry, error) {
	var entry db.QueueEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Candidates returns queue entries that pass every store-side filter for
// the given searcher: opposite gender, age inside the searcher's window,
// not the searcher, not banned, never previously matched with the
// searcher (checked in both pair orderings), and holding a coordinate.
// Distance filtering and the reverse window check happen in the finder.
//
// Ordered by priority flag then wait time, so the distance sort
// downstream breaks ties in favor of priority entries and, within those,
// whoever has waited longest.
func (r *QueueRepository) Candidates(ctx context.Context, searcherID int64, gender string, ageLo, ageHi int) ([]db.QueueEntry, error) {
	var entries []db.QueueEntry
	err := r.db.WithContext(ctx).
		Table("queue_entries q").
		Where("q.user_id <> ? AND q.gender = ?", searcherID, gender).
		Where("q.age BETWEEN ? AND ?", ageLo, ageHi).
		Where("q.latitude IS NOT NULL AND q.longitude IS NOT NULL").
		Where(`
			NOT EXISTS (
				SELECT 1 FROM match_history h
				WHERE (h.user1_id = ? AND h.user2_id = q.user_id)
				   OR (h.user1_id = q.user_id AND h.user2_id = ?)
			)`, searcherID, searcherID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM banned_users b
				WHERE b.user_id = q.user_id
			)`).
		Order("q.has_priority DESC, q.searching_since ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	return entries, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository owns chat sessions, the match history set, and the
// per-session username shares.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new repository bound to the given DB connection.
func NewSessionRepository(database *gorm.DB) *SessionRepository {
	return &SessionRepository{db: database}
}

// ActiveSessionFor returns the user's active session, nil if none.
func (r *SessionRepository) ActiveSessionFor(ctx context.Context, userID int64) (*db.ChatSession, error) {
	var session db.ChatSession
	err := r.db.WithContext(ctx).
		Where("(user1_id = ? OR user2_id = ?) AND is_active = ?", userID, userID, true).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active session lookup: %w", err)
	}
	return &session, nil
}

// CreateMatch commits a match as one atomic unit:
//
//  1. delete both queue entries — the delete must affect exactly two
//     rows, otherwise one party cancelled (or was matched) concurrently
//     and the whole match aborts, leaving state untouched;
//  2. insert the active chat session;
//  3. insert the ordered pair into match_history, insert-if-absent so a
//     replay can never produce a second history row.
//
// Any failure rolls the whole unit back. Notifications are the caller's
// job and happen strictly after this returns.
func (r *SessionRepository) CreateMatch(ctx context.Context, u1, u2 *db.QueueEntry) (*db.ChatSession, error) {
	session := &db.ChatSession{
		User1ID:     u1.UserID,
		User2ID:     u2.UserID,
		User1Gender: u1.Gender,
		User2Gender: u2.Gender,
		IsActive:    true,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id IN ?", []int64{u1.UserID, u2.UserID}).
			Delete(&db.QueueEntry{})
		if res.Error != nil {
			return fmt.Errorf("drain queue: %w", res.Error)
		}
		if res.RowsAffected != 2 {
			return apperr.ErrNoLongerSearching
		}

		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		lo, hi := db.OrderPair(u1.UserID, u2.UserID)
		history := db.MatchHistory{User1ID: lo, User2ID: hi}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&history).Error; err != nil {
			return fmt.Errorf("record history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// EndSession deactivates a session with an end timestamp. Idempotent: an
// already-ended session is left as is.
func (r *SessionRepository) EndSession(ctx context.Context, sessionID uint64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&db.ChatSession{}).
		Where("id = ? AND is_active = ?", sessionID, true).
		Updates(map[string]any{"is_active": false, "ended_at": &now}).Error
}

// HasShared reports whether the user already disclosed their username in
// this session.
func (r *SessionRepository) HasShared(ctx context.Context, sessionID uint64, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.UsernameShare{}).
		Where("session_id = ? AND shared_by = ?", sessionID, userID).
		Count(&count).Error
	return count > 0, err
}

// RecordShare stores a username disclosure. The unique (session, sharer)
// index backs the at-most-once rule even under a race.
func (r *SessionRepository) RecordShare(ctx context.Context, sessionID uint64, sharedBy, sharedTo int64) error {
	share := db.UsernameShare{
		SessionID: sessionID,
		SharedBy:  sharedBy,
		SharedTo:  sharedTo,
	}
	return r.db.WithContext(ctx).Create(&share).Error
}

// PairMatched reports whether the unordered pair already exists in the
// match history.
func (r *SessionRepository) PairMatched(ctx context.Context, a, b int64) (bool, error) {
	lo, hi := db.OrderPair(a, b)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.MatchHistory{}).
		Where("user1_id = ? AND user2_id = ?", lo, hi).
		Count(&count).Error
	return count > 0, err
}

// StoreSealedMessage appends a moderation copy of a relayed message.
func (r *SessionRepository) StoreSealedMessage(ctx context.Context, sessionID uint64, senderID int64, box []byte) error {
	msg := db.SealedMessage{
		SessionID: sessionID,
		SenderID:  senderID,
		Box:       box,
	}
	return r.db.WithContext(ctx).Create(&msg).Error
}

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

// SystemBanReason is the fixed reason attached to automatic bans.
const SystemBanReason = "Automatic ban: Multiple reports threshold reached"

// ModerationRepository owns bans and reports, including the automatic
// ban rule that fires when a user's pending report count reaches the
// configured threshold.
type ModerationRepository struct {
	db           *gorm.DB
	banThreshold int
}

// NewModerationRepository creates a new repository bound to the given DB
// connection. banThreshold is the pending-report count that triggers an
// automatic ban.
func NewModerationRepository(database *gorm.DB, banThreshold int) *ModerationRepository {
	return &ModerationRepository{db: database, banThreshold: banThreshold}
}

// IsBanned reports whether the user is in the ban set.
//
// Callers on safety-critical paths must fail closed: if the error is
// non-nil the answer is unknown and service must be denied, never
// defaulted to "not banned".
func (r *ModerationRepository) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.BannedUser{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("ban check: %w", err)
	}
	return count > 0, nil
}

// Ban inserts or refreshes a ban and force-ends any active chat session
// the user is a party to, in one transaction. Idempotent: banning an
// already-banned user updates the reason and actor instead of erroring.
func (r *ModerationRepository) Ban(ctx context.Context, userID, actorID int64, reason string) error {
	ban := db.BannedUser{
		UserID:   userID,
		BannedBy: actorID,
		Reason:   reason,
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"banned_by", "reason"}),
		}).Create(&ban).Error; err != nil {
			return err
		}
		return endActiveSessions(tx, userID)
	})
}

// endActiveSessions evicts a freshly banned user from any in-progress
// chat so their counterpart is not stuck in a dead session.
func endActiveSessions(tx *gorm.DB, userID int64) error {
	now := time.Now().UTC()
	return tx.Model(&db.ChatSession{}).
		Where("(user1_id = ? OR user2_id = ?) AND is_active = ?", userID, userID, true).
		Updates(map[string]any{"is_active": false, "ended_at": &now}).Error
}

// Unban removes the ban record. No-op if absent.
func (r *ModerationRepository) Unban(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&db.BannedUser{}).Error
}

// RecordReport inserts a pending report and evaluates the automatic-ban
// rule in the same transaction: when the reported user's pending report
// count reaches the threshold they are banned with the system actor and
// the fixed system reason. Only pending reports count; resolved ones do
// not accumulate.
func (r *ModerationRepository) RecordReport(ctx context.Context, reporterID, reportedID int64, sessionID uint64, category, details string) (*db.Report, error) {
	report := &db.Report{
		ReporterID: reporterID,
		ReportedID: reportedID,
		SessionID:  sessionID,
		Category:   category,
		Details:    details,
		Status:     db.ReportPending,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			return fmt.Errorf("insert report: %w", err)
		}

		var pending int64
		if err := tx.Model(&db.Report{}).
			Where("reported_id = ? AND status = ?", reportedID, db.ReportPending).
			Count(&pending).Error; err != nil {
			return fmt.Errorf("count pending reports: %w", err)
		}

		if pending >= int64(r.banThreshold) {
			ban := db.BannedUser{
				UserID:   reportedID,
				BannedBy: db.SystemActorID,
				Reason:   SystemBanReason,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"reason"}),
			}).Create(&ban).Error; err != nil {
				return fmt.Errorf("auto ban: %w", err)
			}
			if err := endActiveSessions(tx, reportedID); err != nil {
				return fmt.Errorf("end sessions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ResolveReport transitions a report to reviewed or action_taken.
// action_taken additionally bans the reported user with the resolving
// actor's id and ends any chat they are still in.
func (r *ModerationRepository) ResolveReport(ctx context.Context, reportID uint64, outcome string, actorID int64) error {
	if outcome != db.ReportReviewed && outcome != db.ReportActionTaken {
		return apperr.ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report db.Report
		if err := tx.First(&report, reportID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return err
		}

		if err := tx.Model(&report).Update("status", outcome).Error; err != nil {
			return err
		}

		if outcome == db.ReportActionTaken {
			reason := fmt.Sprintf("Banned after report #%d (%s)", report.ID, report.Category)
			ban := db.BannedUser{UserID: report.ReportedID, BannedBy: actorID, Reason: reason}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"banned_by", "reason"}),
			}).Create(&ban).Error; err != nil {
				return err
			}
			return endActiveSessions(tx, report.ReportedID)
		}
		return nil
	})
}

// PendingReports lists unreviewed reports, oldest first.
func (r *ModerationRepository) PendingReports(ctx context.Context, limit int) ([]db.Report, error) {
	var reports []db.Report
	err := r.db.WithContext(ctx).
		Where("status = ?", db.ReportPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&reports).Error
	return reports, err
}

// PendingCount returns how many pending reports exist against a user.
func (r *ModerationRepository) PendingCount(ctx context.Context, reportedID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Report{}).
		Where("reported_id = ? AND status = ?", reportedID, db.ReportPending).
		Count(&count).Error
	return count, err
}

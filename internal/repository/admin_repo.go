package repository

import (
	"context"

	"github.com/ebisa/bunamatch/internal/db"
	"gorm.io/gorm"
)

// Stats is a snapshot of operator-facing totals.
type Stats struct {
	Users          int64 `json:"users"`
	Searching      int64 `json:"searching"`
	ActiveSessions int64 `json:"active_sessions"`
	PendingReports int64 `json:"pending_reports"`
	Banned         int64 `json:"banned"`
	PaymentsTotal  int64 `json:"payments_total"`
}

// AdminRepository backs the operator API: audit rows, ban listings and
// aggregate stats.
type AdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates a new repository bound to the given DB connection.
func NewAdminRepository(database *gorm.DB) *AdminRepository {
	return &AdminRepository{db: database}
}

// LogAction appends an audit row. Audit failures are surfaced to the
// caller; operator actions should not silently lose their trail.
func (r *AdminRepository) LogAction(ctx context.Context, adminID int64, actionType string, targetUserID int64, details string) error {
	return r.db.WithContext(ctx).Create(&db.AdminAction{
		AdminID:      adminID,
		ActionType:   actionType,
		TargetUserID: targetUserID,
		Details:      details,
	}).Error
}

// ListBanned returns ban rows, newest first.
func (r *AdminRepository) ListBanned(ctx context.Context, limit int) ([]db.BannedUser, error) {
	var bans []db.BannedUser
	err := r.db.WithContext(ctx).
		Order("banned_at DESC").
		Limit(limit).
		Find(&bans).Error
	return bans, err
}

// CollectStats gathers the dashboard counters.
func (r *AdminRepository) CollectStats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	gdb := r.db.WithContext(ctx)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&s.Users, gdb.Model(&db.User{})},
		{&s.Searching, gdb.Model(&db.QueueEntry{})},
		{&s.ActiveSessions, gdb.Model(&db.ChatSession{}).Where("is_active = ?", true)},
		{&s.PendingReports, gdb.Model(&db.Report{}).Where("status = ?", db.ReportPending)},
		{&s.Banned, gdb.Model(&db.BannedUser{})},
		{&s.PaymentsTotal, gdb.Model(&db.StarsPayment{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return s, nil
}

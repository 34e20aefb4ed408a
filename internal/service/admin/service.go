// Package admin backs the operator HTTP API: report review, manual
// bans, credit grants, user lookup, and aggregate stats. Every mutation
// leaves an audit row.
package admin

import (
	"context"
	"fmt"

	"github.com/ebisa/bunamatch/internal/app"
	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/repository"
)

// Service exposes moderation and support operations to authenticated admins.
type Service struct {
	appCtx     *app.AppContext
	users      *repository.UserRepository
	ledger     *repository.LedgerRepository
	moderation *repository.ModerationRepository
	admin      *repository.AdminRepository
}

// NewService creates the admin service.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		users:      repository.NewUserRepository(appCtx.DB),
		ledger:     repository.NewLedgerRepository(appCtx.DB),
		moderation: repository.NewModerationRepository(appCtx.DB, appCtx.Config.Moderation.ReportBanThreshold),
		admin:      repository.NewAdminRepository(appCtx.DB),
	}
}

// PendingReports lists unreviewed reports, oldest first.
func (s *Service) PendingReports(ctx context.Context, limit int) ([]db.Report, error) {
	return s.moderation.PendingReports(ctx, limit)
}

// ResolveReport closes a report. Outcome "action_taken" also bans the
// reported user; "reviewed" dismisses.
func (s *Service) ResolveReport(ctx context.Context, adminID int64, reportID uint64, outcome string) error {
	if outcome != db.ReportReviewed && outcome != db.ReportActionTaken {
		return apperr.ErrInvalidInput
	}
	if err := s.moderation.ResolveReport(ctx, reportID, outcome, adminID); err != nil {
		return err
	}
	return s.admin.LogAction(ctx, adminID, "resolve_report", 0,
		fmt.Sprintf("report %d -> %s", reportID, outcome))
}

// Ban blocks a user manually.
func (s *Service) Ban(ctx context.Context, adminID, userID int64, reason string) error {
	if reason == "" {
		reason = "Banned by administrator"
	}
	if err := s.moderation.Ban(ctx, userID, adminID, reason); err != nil {
		return err
	}
	s.appCtx.Logger.Info("user banned", "user_id", userID, "admin_id", adminID, "reason", reason)
	return s.admin.LogAction(ctx, adminID, "ban", userID, reason)
}

// Unban lifts a ban. Lifting a ban that does not exist is a no-op.
func (s *Service) Unban(ctx context.Context, adminID, userID int64) error {
	if err := s.moderation.Unban(ctx, userID); err != nil {
		return err
	}
	s.appCtx.Logger.Info("user unbanned", "user_id", userID, "admin_id", adminID)
	return s.admin.LogAction(ctx, adminID, "unban", userID, "")
}

// GrantCredits adds search credits to a user's balance through the
// ledger. Amount must be positive.
func (s *Service) GrantCredits(ctx context.Context, adminID, userID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, apperr.ErrInvalidInput
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, apperr.ErrNotFound
	}

	description := fmt.Sprintf("Granted by admin %d", adminID)
	if err := s.ledger.Credit(ctx, userID, amount, db.TxAdminGrant, description); err != nil {
		return 0, err
	}
	_ = s.appCtx.RedisCache.InvalidateBalance(ctx, userID)

	if err := s.admin.LogAction(ctx, adminID, "grant_credits", userID,
		fmt.Sprintf("amount %d", amount)); err != nil {
		return 0, err
	}
	return s.ledger.Balance(ctx, userID)
}

// UserView is the support view of an account.
type UserView struct {
	User           *db.User `json:"user"`
	Banned         bool     `json:"banned"`
	PendingReports int64    `json:"pending_reports"`
}

// Lookup fetches a user together with their moderation standing.
func (s *Service) Lookup(ctx context.Context, userID int64) (*UserView, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrNotFound
	}
	banned, err := s.moderation.IsBanned(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.moderation.PendingCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserView{User: user, Banned: banned, PendingReports: pending}, nil
}

// ListBanned returns current bans, newest first.
func (s *Service) ListBanned(ctx context.Context, limit int) ([]db.BannedUser, error) {
	return s.admin.ListBanned(ctx, limit)
}

// Stats returns aggregate platform counters.
func (s *Service) Stats(ctx context.Context) (*repository.Stats, error) {
	return s.admin.CollectStats(ctx)
}

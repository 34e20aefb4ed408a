package admin_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ebisa/bunamatch/internal/app"
	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/cache"
	"github.com/ebisa/bunamatch/internal/config"
	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/service/admin"
)

func setupService(t *testing.T) (*admin.Service, *app.AppContext) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(db.Models()...))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, cache.NewRedisCache(cfg), logger, cfg)
	return admin.NewService(appCtx), appCtx
}

func seedAccount(t *testing.T, appCtx *app.AppContext, id int64, searches int) {
	t.Helper()
	require.NoError(t, appCtx.DB.Create(&db.User{
		TelegramID: id, Username: fmt.Sprintf("user%d", id), FirstName: "Test",
		Age: 30, Gender: db.GenderFemale, Searches: searches,
		RegistrationStep: db.RegStepCompleted,
	}).Error)
	if searches != 0 {
		require.NoError(t, appCtx.DB.Create(&db.CreditTransaction{
			UserID: id, Amount: searches, Type: db.TxInitialFree,
		}).Error)
	}
}

func TestBanUnbanWithAudit(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	seedAccount(t, appCtx, 7, 0)

	require.NoError(t, svc.Ban(ctx, 1, 7, "spamming"))

	view, err := svc.Lookup(ctx, 7)
	require.NoError(t, err)
	assert.True(t, view.Banned)

	banned, err := svc.ListBanned(ctx, 10)
	require.NoError(t, err)
	require.Len(t, banned, 1)
	assert.Equal(t, "spamming", banned[0].Reason)

	require.NoError(t, svc.Unban(ctx, 1, 7))
	view, err = svc.Lookup(ctx, 7)
	require.NoError(t, err)
	assert.False(t, view.Banned)

	var actions []db.AdminAction
	require.NoError(t, appCtx.DB.Order("id").Find(&actions).Error)
	require.Len(t, actions, 2)
	assert.Equal(t, "ban", actions[0].ActionType)
	assert.Equal(t, "unban", actions[1].ActionType)
	assert.EqualValues(t, 7, actions[0].TargetUserID)
}

func TestBanEvictsFromActiveChat(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	seedAccount(t, appCtx, 1, 0)
	seedAccount(t, appCtx, 2, 0)
	session := db.ChatSession{User1ID: 1, User2ID: 2, IsActive: true}
	require.NoError(t, appCtx.DB.Create(&session).Error)

	require.NoError(t, svc.Ban(ctx, 99, 1, "spamming"))

	var row db.ChatSession
	require.NoError(t, appCtx.DB.First(&row, session.ID).Error)
	assert.False(t, row.IsActive, "ban must end the user's active chat")
	assert.NotNil(t, row.EndedAt)
}

func TestResolveReport(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	seedAccount(t, appCtx, 7, 0)
	require.NoError(t, appCtx.DB.Create(&db.Report{
		ReporterID: 1, ReportedID: 7, SessionID: 1,
		Category: db.ReportHarassment, Status: db.ReportPending,
	}).Error)

	reports, err := svc.PendingReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	assert.ErrorIs(t, svc.ResolveReport(ctx, 1, reports[0].ID, "whatever"), apperr.ErrInvalidInput)

	require.NoError(t, svc.ResolveReport(ctx, 1, reports[0].ID, db.ReportActionTaken))

	view, err := svc.Lookup(ctx, 7)
	require.NoError(t, err)
	assert.True(t, view.Banned)
	assert.EqualValues(t, 0, view.PendingReports)

	reports, err = svc.PendingReports(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestGrantCredits(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	seedAccount(t, appCtx, 7, 2)

	balance, err := svc.GrantCredits(ctx, 1, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, balance)

	var tx db.CreditTransaction
	require.NoError(t, appCtx.DB.Last(&tx).Error)
	assert.Equal(t, db.TxAdminGrant, tx.Type)
	assert.Equal(t, 10, tx.Amount)

	_, err = svc.GrantCredits(ctx, 1, 7, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.GrantCredits(ctx, 1, 404, 10)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	seedAccount(t, appCtx, 1, 3)
	seedAccount(t, appCtx, 2, 3)
	require.NoError(t, appCtx.DB.Create(&db.ChatSession{User1ID: 1, User2ID: 2, IsActive: true}).Error)
	require.NoError(t, appCtx.DB.Create(&db.BannedUser{UserID: 9, BannedBy: 1}).Error)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Users)
	assert.EqualValues(t, 1, stats.ActiveSessions)
	assert.EqualValues(t, 1, stats.Banned)
}

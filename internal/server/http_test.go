package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ebisa/bunamatch/internal/app"
	"github.com/ebisa/bunamatch/internal/bot"
	"github.com/ebisa/bunamatch/internal/cache"
	"github.com/ebisa/bunamatch/internal/config"
	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/sealed"
	"github.com/ebisa/bunamatch/internal/server"
	"github.com/ebisa/bunamatch/internal/service/admin"
	"github.com/ebisa/bunamatch/internal/service/billing"
	"github.com/ebisa/bunamatch/internal/service/chat"
	"github.com/ebisa/bunamatch/internal/service/matchmaking"
	"github.com/ebisa/bunamatch/internal/service/profile"
	"github.com/ebisa/bunamatch/internal/telegram"
)

const testSealingKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func setupApp(t *testing.T) (*fiber.App, *app.AppContext) {
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
	cfg.Admin.JWTSecret = "test-secret"
	cfg.Admin.Password = "hunter2"
	// unreachable endpoint; handlers must tolerate send failures
	cfg.Telegram.APIBase = "http://127.0.0.1:1"
	cfg.Telegram.BotToken = "test-token"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, cache.NewRedisCache(cfg), logger, cfg)

	sealer, err := sealed.New(testSealingKey)
	require.NoError(t, err)

	dispatcher := bot.NewDispatcher(
		appCtx,
		telegram.NewClient(cfg, logger),
		matchmaking.NewService(appCtx),
		chat.NewService(appCtx, sealer),
		billing.NewService(appCtx),
		profile.NewService(appCtx),
	)
	return server.New(appCtx, dispatcher, admin.NewService(appCtx)), appCtx
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	f, _ := setupApp(t)

	for _, body := range []string{`{not json`, `{"update_id": 1}`, ``} {
		req := httptest.NewRequest("POST", "/webhook", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := f.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "body %q", body)
	}
}

func TestHealthz(t *testing.T) {
	f, _ := setupApp(t)
	resp, err := f.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminLoginAndStats(t *testing.T) {
	f, appCtx := setupApp(t)

	// wrong password
	resp, err := f.Test(jsonReq("POST", "/admin/login", map[string]string{"password": "nope"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// correct password yields a token
	resp, err = f.Test(jsonReq("POST", "/admin/login", map[string]string{"password": "hunter2"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	// stats requires the token
	resp, err = f.Test(httptest.NewRequest("GET", "/admin/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, appCtx.DB.Create(&db.User{
		TelegramID: 1, Username: "u1", FirstName: "Test", Age: 30,
		Gender: db.GenderMale, RegistrationStep: db.RegStepCompleted,
	}).Error)

	req := httptest.NewRequest("GET", "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = f.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var stats struct {
		Users int64 `json:"users"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.EqualValues(t, 1, stats.Users)
}

func TestAdminBanEndpoints(t *testing.T) {
	f, appCtx := setupApp(t)
	require.NoError(t, appCtx.DB.Create(&db.User{
		TelegramID: 7, Username: "u7", FirstName: "Test", Age: 30,
		Gender: db.GenderFemale, RegistrationStep: db.RegStepCompleted,
	}).Error)

	resp, err := f.Test(jsonReq("POST", "/admin/login", map[string]string{"password": "hunter2"}))
	require.NoError(t, err)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))

	req := jsonReq("POST", "/admin/users/7/ban", map[string]string{"reason": "test ban"})
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = f.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	appCtx.DB.Model(&db.BannedUser{}).Where("user_id = ?", 7).Count(&count)
	assert.EqualValues(t, 1, count)

	req = httptest.NewRequest("DELETE", "/admin/users/7/ban", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = f.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	appCtx.DB.Model(&db.BannedUser{}).Where("user_id = ?", 7).Count(&count)
	assert.EqualValues(t, 0, count)

	// bad id
	req = jsonReq("POST", "/admin/users/abc/ban", map[string]string{})
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = f.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func jsonReq(method, target string, body any) *http.Request {
	buf, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

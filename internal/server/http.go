// Package server assembles the Fiber application: the Telegram webhook
// endpoint and the JWT-protected admin API.
package server

import (
	"crypto/subtle"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ebisa/bunamatch/internal/app"
	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/bot"
	"github.com/ebisa/bunamatch/internal/middleware"
	"github.com/ebisa/bunamatch/internal/service/admin"
)

// New builds the HTTP application.
func New(appCtx *app.AppContext, dispatcher *bot.Dispatcher, adminSvc *admin.Service) *fiber.App {
	f := fiber.New(fiber.Config{
		AppName:               "bunamatch",
		DisableStartupMessage: true,
	})
	f.Use(middleware.RequestLogger(appCtx.Logger))

	f.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Telegram redelivers on anything but 200, so the webhook always
	// acknowledges; processing failures are the dispatcher's problem.
	f.Post("/webhook", func(c *fiber.Ctx) error {
		body := make([]byte, len(c.Body()))
		copy(body, c.Body())
		dispatcher.HandleUpdate(c.UserContext(), body)
		return c.SendStatus(fiber.StatusOK)
	})

	registerAdminRoutes(f, appCtx, adminSvc)
	return f
}

func registerAdminRoutes(f *fiber.App, appCtx *app.AppContext, adminSvc *admin.Service) {
	cfg := appCtx.Config.Admin
	if cfg.JWTSecret == "" || cfg.Password == "" {
		appCtx.Logger.Warn("admin API disabled: secret or password not configured")
		return
	}

	f.Post("/admin/login", func(c *fiber.Ctx) error {
		var req struct {
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if subtle.ConstantTimeCompare([]byte(req.Password), []byte(cfg.Password)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
		}
		token, err := middleware.GenerateToken(cfg.JWTSecret)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "token generation failed"})
		}
		return c.JSON(fiber.Map{"token": token})
	})

	g := f.Group("/admin", middleware.RequireAdmin(cfg.JWTSecret))

	g.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := adminSvc.Stats(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(stats)
	})

	g.Get("/reports", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		reports, err := adminSvc.PendingReports(c.UserContext(), limit)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"reports": reports})
	})

	g.Post("/reports/:id/resolve", func(c *fiber.Ctx) error {
		reportID, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid report id"})
		}
		var req struct {
			Outcome string `json:"outcome"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := adminSvc.ResolveReport(c.UserContext(), adminActor, reportID, req.Outcome); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"resolved": reportID, "outcome": req.Outcome})
	})

	g.Get("/bans", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 100)
		banned, err := adminSvc.ListBanned(c.UserContext(), limit)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"banned": banned})
	})

	g.Get("/users/:id", func(c *fiber.Ctx) error {
		userID, ok := userParam(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
		}
		view, err := adminSvc.Lookup(c.UserContext(), userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view)
	})

	g.Post("/users/:id/ban", func(c *fiber.Ctx) error {
		userID, ok := userParam(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
		}
		var req struct {
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := adminSvc.Ban(c.UserContext(), adminActor, userID, req.Reason); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"banned": userID})
	})

	g.Delete("/users/:id/ban", func(c *fiber.Ctx) error {
		userID, ok := userParam(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
		}
		if err := adminSvc.Unban(c.UserContext(), adminActor, userID); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"unbanned": userID})
	})

	g.Post("/users/:id/credits", func(c *fiber.Ctx) error {
		userID, ok := userParam(c)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
		}
		var req struct {
			Amount int `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		balance, err := adminSvc.GrantCredits(c.UserContext(), adminActor, userID, req.Amount)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"user_id": userID, "granted": req.Amount, "balance": balance})
	})
}

// adminActor identifies API-originated actions in the audit log. The
// single-operator API has no per-admin identity yet.
const adminActor int64 = 1

func userParam(c *fiber.Ctx) (int64, bool) {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return userID, err == nil
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

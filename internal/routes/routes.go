package routes

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/campus-verify/campus_verify/internal/config"
	"github.com/campus-verify/campus_verify/internal/email"
	"github.com/campus-verify/campus_verify/internal/member"
	"github.com/campus-verify/campus_verify/internal/middleware"
	"github.com/campus-verify/campus_verify/internal/role"
	"github.com/campus-verify/campus_verify/internal/verify"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Shutdown is invoked by the admin shutdown endpoint to stop the
	// process gracefully. Optional.
	Shutdown func()
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	startedAt := time.Now().UTC()

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Member store: Postgres when configured, JSON snapshot file otherwise.
	var members member.Store
	if d.DB != nil {
		members = member.NewPostgresStore(d.DB)
	} else {
		store, err := member.NewFileStore(d.Cfg.MemberDBPath)
		if err != nil {
			return fmt.Errorf("open member store: %w", err)
		}
		members = store
	}

	// Outbound mail: real SMTP relay when configured, logger stub in dev.
	var sender email.Sender
	if d.Cfg.SMTPEnabled() {
		smtp, err := email.NewSMTPSender(email.SMTPConfig{
			Host:     d.Cfg.SMTPHost,
			Port:     d.Cfg.SMTPPort,
			Username: d.Cfg.SMTPUsername,
			Password: d.Cfg.SMTPPassword,
			From:     d.Cfg.SMTPFrom,
			AppName:  d.Cfg.AppName,
		}, d.Logger)
		if err != nil {
			return fmt.Errorf("build smtp sender: %w", err)
		}
		sender = smtp
	} else {
		sender = email.NewLoggerSender(d.Logger)
	}

	granter := role.NewLoggerGranter(d.Logger)
	svc := verify.NewService(d.Cfg.EmailDomain, d.Cfg.VerifiedRole,
		verify.NewPendingTable(), members, sender, granter, d.Logger)

	// Health
	RegisterHealthRoutes(app, d)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID := middleware.RequestIDFromCtx(c)
		return c.JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterVerificationRoutes(api, svc)

	if d.Cfg.AdminEnabled() {
		adminAuth, err := middleware.AdminAuth(d.Cfg.AdminToken)
		if err != nil {
			return fmt.Errorf("build admin auth: %w", err)
		}
		admin := api.Group("/admin", adminAuth)
		RegisterAdminRoutes(admin, members, svc, startedAt, d.Shutdown, d.Logger)
	}

	return nil
}

package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/campus-verify/campus_verify/internal/member"
	"github.com/campus-verify/campus_verify/internal/verify"
)

// RegisterAdminRoutes wires the operator endpoints: inspect and prune the
// member table, check service status, and stop the process.
func RegisterAdminRoutes(r fiber.Router, members member.Store, svc *verify.Service, startedAt time.Time, shutdown func(), logger *slog.Logger) {
	r.Get("/members", func(c *fiber.Ctx) error {
		records, err := members.All(c.UserContext())
		if err != nil {
			logger.Error("list members failed", slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "member store failure")
		}
		if records == nil {
			records = []member.Record{}
		}
		return c.JSON(fiber.Map{"members": records, "count": len(records)})
	})

	r.Delete("/members/:identity", func(c *fiber.Ctx) error {
		identity := c.Params("identity")
		removed, err := members.Remove(c.UserContext(), identity)
		if err != nil {
			logger.Error("remove member failed", slog.String("identity", identity), slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "member store failure")
		}
		if !removed {
			return fiber.NewError(http.StatusNotFound, "no such member")
		}
		logger.Info("member removed", slog.String("identity", identity))
		return c.JSON(fiber.Map{"removed": identity})
	})

	r.Get("/status", func(c *fiber.Ctx) error {
		records, err := members.All(c.UserContext())
		if err != nil {
			logger.Error("list members failed", slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "member store failure")
		}
		return c.JSON(fiber.Map{
			"members":  len(records),
			"pending":  svc.PendingCount(),
			"uptime":   time.Since(startedAt).Round(time.Second).String(),
			"started":  startedAt.Format(time.RFC3339),
			"reported": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	r.Post("/shutdown", func(c *fiber.Ctx) error {
		if shutdown == nil {
			return fiber.NewError(http.StatusNotImplemented, "shutdown not wired")
		}
		logger.Info("shutdown requested via admin API")
		// Reply first, then let main unwind the listener.
		if err := c.JSON(fiber.Map{"status": "shutting down"}); err != nil {
			return err
		}
		go shutdown()
		return nil
	})
}

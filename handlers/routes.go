// handlers/routes.go
package handlers

import (
	"errors"
	"log"
	"strconv"

	"vpay-gamification/events"
	"vpay-gamification/middleware"
	"vpay-gamification/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes mounts every engine endpoint. The gateway forwards paths like
// /api/v1/gamification/s/quests -> /s/quests.
func SetupRoutes(app *fiber.App, engine *services.Engine, hub *events.Hub) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 🔐 Secured routes require user context (userID, roles)
	secured := app.Group("/s", middleware.UserContextMiddleware())

	setupActivityRoutes(secured, engine.Activities)
	setupProgressionRoutes(secured, engine)
	setupQuestRoutes(secured, engine.Quests)
	setupRecommendationRoutes(secured, engine.Recommendations)
	setupLeaderboardRoutes(secured, engine.Leaderboards)
	secured.Get("/user/events/stream", StreamUserEventsSSE(hub))

	admin := secured.Group("/admin", middleware.RequireRole("admin"))
	setupAdminRoutes(admin, engine)
}

func currentUser(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// respondError maps engine error kinds onto HTTP statuses.
func respondError(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidState):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrStorage):
		status = fiber.StatusServiceUnavailable
	}
	if status >= fiber.StatusInternalServerError {
		log.Printf("❌ [HTTP] %s %s: %s: %v", c.Method(), c.Path(), msg, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg string, err error) error {
	body := fiber.Map{"error": msg}
	if err != nil {
		body["cause"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

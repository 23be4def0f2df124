// handlers/activity_routes.go
package handlers

import (
	"strings"

	"vpay-gamification/models"
	"vpay-gamification/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type recordActivityRequest struct {
	ActivityType string           `json:"activity_type"`
	Metadata     map[string]any   `json:"metadata"`
	Amount       *decimal.Decimal `json:"amount"`
	Category     *string          `json:"category"`
}

func setupActivityRoutes(r fiber.Router, activities *services.ActivityService) {
	r.Post("/activities", func(c *fiber.Ctx) error {
		var req recordActivityRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}

		res, err := activities.Record(c.UserContext(), services.RecordInput{
			UserID:       currentUser(c),
			ActivityType: models.ActivityType(strings.ToUpper(strings.TrimSpace(req.ActivityType))),
			Metadata:     req.Metadata,
			Amount:       req.Amount,
			Category:     req.Category,
		})
		if err != nil {
			return respondError(c, "failed to record activity", err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	r.Get("/activities", func(c *fiber.Ctx) error {
		list, err := activities.ListRecent(c.UserContext(), currentUser(c), queryInt(c, "limit", 50))
		if err != nil {
			return respondError(c, "failed to list activities", err)
		}
		return c.JSON(list)
	})
}

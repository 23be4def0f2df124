// handlers/recommendation_routes.go
package handlers

import (
	"strings"

	"vpay-gamification/models"
	"vpay-gamification/services"

	"github.com/gofiber/fiber/v2"
)

func setupRecommendationRoutes(r fiber.Router, recs *services.RecommendationService) {
	r.Get("/spending/analysis", func(c *fiber.Ctx) error {
		analysis, err := recs.AnalyzeUserSpending(c.UserContext(), currentUser(c), queryInt(c, "days", 0))
		if err != nil {
			return respondError(c, "failed to analyze spending", err)
		}
		return c.JSON(analysis)
	})

	r.Get("/recommendations", func(c *fiber.Ctx) error {
		status := models.RecommendationStatus(strings.ToUpper(c.Query("status")))
		list, err := recs.ListRecommendations(c.UserContext(), currentUser(c), status)
		if err != nil {
			return respondError(c, "failed to list recommendations", err)
		}
		return c.JSON(list)
	})

	r.Post("/recommendations", func(c *fiber.Ctx) error {
		list, err := recs.GenerateRecommendations(c.UserContext(), currentUser(c))
		if err != nil {
			return respondError(c, "failed to generate recommendations", err)
		}
		return c.Status(fiber.StatusCreated).JSON(list)
	})

	r.Post("/recommendations/:id/claim", func(c *fiber.Ctx) error {
		res, err := recs.ClaimRecommendation(c.UserContext(), currentUser(c), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to claim recommendation", err)
		}
		return c.JSON(res)
	})

	r.Patch("/recommendations/:id/viewed", func(c *fiber.Ctx) error {
		rec, err := recs.MarkViewed(c.UserContext(), currentUser(c), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to mark recommendation viewed", err)
		}
		return c.JSON(rec)
	})
}

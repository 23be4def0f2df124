// handlers/leaderboard_routes.go
package handlers

import (
	"vpay-gamification/services"

	"github.com/gofiber/fiber/v2"
)

func setupLeaderboardRoutes(r fiber.Router, boards *services.LeaderboardService) {
	r.Get("/leaderboards", func(c *fiber.Ctx) error {
		list, err := boards.ListBoards(c.UserContext())
		if err != nil {
			return respondError(c, "failed to list leaderboards", err)
		}
		return c.JSON(list)
	})

	r.Get("/leaderboards/:code", func(c *fiber.Ctx) error {
		view, err := boards.GetLeaderboard(c.UserContext(), c.Params("code"), queryInt(c, "limit", 100))
		if err != nil {
			return respondError(c, "failed to get leaderboard", err)
		}
		return c.JSON(view)
	})
}

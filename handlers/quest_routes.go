// handlers/quest_routes.go
package handlers

import (
	"strings"

	"vpay-gamification/models"
	"vpay-gamification/services"

	"github.com/gofiber/fiber/v2"
)

func setupQuestRoutes(r fiber.Router, quests *services.QuestService) {
	r.Get("/quests", func(c *fiber.Ctx) error {
		list, err := quests.GetQuests(c.UserContext(), currentUser(c))
		if err != nil {
			return respondError(c, "failed to get quests", err)
		}

		response := make([]fiber.Map, 0, len(list))
		for _, uq := range list {
			cur := uq.Count(uq.Quest.RequirementType)
			response = append(response, fiber.Map{
				"id":           uq.ID,
				"quest":        uq.Quest,
				"status":       uq.Status,
				"progress":     cur,
				"required":     uq.Quest.RequirementCount,
				"percent":      services.PercentComplete(cur, uq.Quest.RequirementCount),
				"started_at":   uq.StartedAt,
				"expires_at":   uq.ExpiresAt,
				"completed_at": uq.CompletedAt,
			})
		}
		return c.JSON(response)
	})

	r.Post("/quests/weekly", func(c *fiber.Ctx) error {
		templates, err := quests.GenerateWeeklyQuests(c.UserContext(), currentUser(c))
		if err != nil {
			return respondError(c, "failed to generate weekly quests", err)
		}
		return c.Status(fiber.StatusCreated).JSON(templates)
	})

	r.Post("/quests/:id/progress", func(c *fiber.Ctx) error {
		type Req struct {
			ActivityType string `json:"activity_type"`
			Increment    int    `json:"increment"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.Increment == 0 {
			req.Increment = 1
		}

		res, err := quests.UpdateQuestProgress(c.UserContext(), currentUser(c), c.Params("id"),
			models.ActivityType(strings.ToUpper(req.ActivityType)), req.Increment)
		if err != nil {
			return respondError(c, "failed to update quest progress", err)
		}
		return c.JSON(res)
	})

	r.Post("/quests/:id/abandon", func(c *fiber.Ctx) error {
		uq, err := quests.FailQuest(c.UserContext(), currentUser(c), c.Params("id"))
		if err != nil {
			return respondError(c, "failed to abandon quest", err)
		}
		return c.JSON(uq)
	})
}

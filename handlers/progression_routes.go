// handlers/progression_routes.go
package handlers

import (
	"strings"

	"vpay-gamification/models"
	"vpay-gamification/services"

	"github.com/gofiber/fiber/v2"
)

func setupProgressionRoutes(r fiber.Router, engine *services.Engine) {
	r.Get("/user/level", func(c *fiber.Ctx) error {
		lvl, err := engine.Levels.GetLevel(c.UserContext(), currentUser(c))
		if err != nil {
			return respondError(c, "failed to get level", err)
		}
		return c.JSON(fiber.Map{
			"level":            lvl.Level,
			"xp":               lvl.XP,
			"xp_to_next":       lvl.XPToNext,
			"total_xp":         lvl.TotalXP,
			"progress_percent": services.PercentComplete(int(lvl.XP), int(lvl.XPToNext)),
			"last_level_up_at": lvl.LastLevelUpAt,
		})
	})

	r.Get("/user/points", func(c *fiber.Ctx) error {
		user, err := engine.Points.GetUser(c.UserContext(), currentUser(c))
		if err != nil {
			return respondError(c, "failed to get points", err)
		}
		return c.JSON(fiber.Map{
			"reward_points": user.RewardPoints,
			"tier":          user.Tier,
		})
	})

	r.Get("/user/badges", func(c *fiber.Ctx) error {
		badges, err := engine.Badges.ListUserBadges(c.UserContext(), currentUser(c))
		if err != nil {
			return respondError(c, "failed to get badges", err)
		}

		response := make([]fiber.Map, 0, len(badges))
		for _, ub := range badges {
			response = append(response, fiber.Map{
				"id":          ub.ID,
				"badge_id":    ub.Badge.ID,
				"code":        ub.Badge.Code,
				"name":        ub.Badge.Name,
				"description": ub.Badge.Description,
				"image_url":   ub.Badge.ImageURL,
				"rarity":      ub.Badge.Rarity,
				"earned_at":   ub.EarnedAt,
				"metadata":    ub.Metadata,
			})
		}
		return c.JSON(response)
	})

	r.Get("/streaks", func(c *fiber.Ctx) error {
		streaks, err := engine.Streaks.ListStreaks(c.UserContext(), currentUser(c))
		if err != nil {
			return respondError(c, "failed to list streaks", err)
		}
		return c.JSON(streaks)
	})

	// registered before /streaks/:type
	r.Post("/streaks/check", func(c *fiber.Ctx) error {
		broken, err := engine.Streaks.CheckAndBreakStale(c.UserContext(), currentUser(c))
		if err != nil {
			return respondError(c, "failed to check streaks", err)
		}
		return c.JSON(fiber.Map{"broken": broken})
	})

	r.Post("/streaks/:type", func(c *fiber.Ctx) error {
		streakType := models.StreakType(strings.ToUpper(c.Params("type")))
		streak, err := engine.Streaks.UpdateStreak(c.UserContext(), currentUser(c), streakType)
		if err != nil {
			return respondError(c, "failed to update streak", err)
		}
		return c.JSON(streak)
	})
}

func setupAdminRoutes(r fiber.Router, engine *services.Engine) {
	r.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID         string `json:"user_id"`
			XP             int64  `json:"xp"`
			Reason         string `json:"reason"`
			IdempotencyKey string `json:"idempotency_key"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}

		var (
			res *services.LevelResult
			err error
		)
		if req.IdempotencyKey != "" {
			res, err = engine.Levels.AwardXPOnce(c.UserContext(), req.UserID, req.XP, req.IdempotencyKey, req.Reason)
		} else {
			res, err = engine.Levels.AwardXP(c.UserContext(), req.UserID, req.XP)
		}
		if err != nil {
			return respondError(c, "XP award failed", err)
		}

		return c.JSON(fiber.Map{
			"message":    "XP granted successfully",
			"user_id":    req.UserID,
			"xp":         req.XP,
			"new_level":  res.NewLevel,
			"leveled_up": res.LeveledUp,
		})
	})

	r.Post("/badges/award", func(c *fiber.Ctx) error {
		type Req struct {
			UserID    string         `json:"user_id"`
			BadgeType string         `json:"badge_type"`
			Metadata  map[string]any `json:"metadata"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}

		award, err := engine.Badges.AwardBadge(c.UserContext(), req.UserID, strings.ToUpper(req.BadgeType), req.Metadata)
		if err != nil {
			return respondError(c, "badge award failed", err)
		}
		return c.JSON(award)
	})
}

package models

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"go.yaml.in/yaml/v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// QuestSeed is one template in the seed catalog.
type QuestSeed struct {
	Code        string `yaml:"code"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Difficulty  string `yaml:"difficulty"`
	Requirement struct {
		Type  ActivityType `yaml:"type"`
		Count int          `yaml:"count"`
	} `yaml:"requirement"`
	Rewards struct {
		Points int64  `yaml:"points"`
		XP     int64  `yaml:"xp"`
		Badge  string `yaml:"badge"`
	} `yaml:"rewards"`
	MinLevel int `yaml:"min_level"`
}

// Template converts the seed into a Quest row of the given type.
func (q QuestSeed) Template(t QuestType) Quest {
	tpl := Quest{
		Code:             q.Code,
		Title:            q.Title,
		Description:      q.Description,
		Type:             t,
		Category:         q.Category,
		Difficulty:       q.Difficulty,
		RequirementType:  q.Requirement.Type,
		RequirementCount: q.Requirement.Count,
		PointsReward:     q.Rewards.Points,
		XPReward:         q.Rewards.XP,
		MinLevel:         q.MinLevel,
	}
	if q.Rewards.Badge != "" {
		badge := q.Rewards.Badge
		tpl.BadgeReward = &badge
	}
	return tpl
}

type BadgeSeed struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type LeaderboardSeed struct {
	Code     string              `yaml:"code"`
	Name     string              `yaml:"name"`
	Category LeaderboardCategory `yaml:"category"`
}

// Catalog holds the seed templates loaded at startup.
type Catalog struct {
	Quests struct {
		Daily      []QuestSeed `yaml:"daily"`
		DailyBonus []QuestSeed `yaml:"daily_bonus"`
		Weekly     []QuestSeed `yaml:"weekly"`
	} `yaml:"quests"`
	Badges       []BadgeSeed       `yaml:"badges"`
	Leaderboards []LeaderboardSeed `yaml:"leaderboards"`
}

// DefaultCatalog parses the embedded catalog.yaml.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog decodes a YAML catalog and fills in missing codes from
// titles/names.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	for _, group := range [][]QuestSeed{c.Quests.Daily, c.Quests.DailyBonus, c.Quests.Weekly} {
		for i := range group {
			if group[i].Code == "" {
				group[i].Code = CodeFromTitle(group[i].Title)
			}
			if group[i].Requirement.Count <= 0 {
				return nil, fmt.Errorf("quest %s: requirement count must be positive", group[i].Code)
			}
		}
	}
	for i := range c.Leaderboards {
		if c.Leaderboards[i].Code == "" {
			c.Leaderboards[i].Code = slug.Make(c.Leaderboards[i].Name)
		}
	}
	return &c, nil
}

// CodeFromTitle turns "Weekly Warrior" into "WEEKLY_WARRIOR".
func CodeFromTitle(title string) string {
	return strings.ToUpper(strings.ReplaceAll(slug.Make(title), "-", "_"))
}

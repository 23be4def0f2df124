package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// All lists every table owned by this service, in migration order.
func All() []any {
	return []any{
		&User{},
		&PointTransaction{},
		&UserActivity{},
		&Streak{},
		&Quest{},
		&UserQuest{},
		&UserLevel{},
		&XPGrant{},
		&NFTBadge{},
		&UserBadge{},
		&Transaction{},
		&SpendingPattern{},
		&RewardRecommendation{},
		&DiscountCode{},
		&Leaderboard{},
		&LeaderboardEntry{},
	}
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (p *PointTransaction) BeforeCreate(tx *gorm.DB) error     { ensureID(&p.ID); return nil }
func (a *UserActivity) BeforeCreate(tx *gorm.DB) error         { ensureID(&a.ID); return nil }
func (s *Streak) BeforeCreate(tx *gorm.DB) error               { ensureID(&s.ID); return nil }
func (q *Quest) BeforeCreate(tx *gorm.DB) error                { ensureID(&q.ID); return nil }
func (uq *UserQuest) BeforeCreate(tx *gorm.DB) error           { ensureID(&uq.ID); return nil }
func (g *XPGrant) BeforeCreate(tx *gorm.DB) error              { ensureID(&g.ID); return nil }
func (b *NFTBadge) BeforeCreate(tx *gorm.DB) error             { ensureID(&b.ID); return nil }
func (ub *UserBadge) BeforeCreate(tx *gorm.DB) error           { ensureID(&ub.ID); return nil }
func (t *Transaction) BeforeCreate(tx *gorm.DB) error          { ensureID(&t.ID); return nil }
func (sp *SpendingPattern) BeforeCreate(tx *gorm.DB) error     { ensureID(&sp.ID); return nil }
func (r *RewardRecommendation) BeforeCreate(tx *gorm.DB) error { ensureID(&r.ID); return nil }
func (d *DiscountCode) BeforeCreate(tx *gorm.DB) error         { ensureID(&d.ID); return nil }
func (l *Leaderboard) BeforeCreate(tx *gorm.DB) error          { ensureID(&l.ID); return nil }
func (e *LeaderboardEntry) BeforeCreate(tx *gorm.DB) error     { ensureID(&e.ID); return nil }

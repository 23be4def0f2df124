// workers/scheduler.go
package workers

import (
	"context"
	"log"
	"time"

	"vpay-gamification/services"

	"github.com/go-co-op/gocron/v2"
)

// Jobs holds the batch entry points run on a schedule.
type Jobs struct {
	Engine *services.Engine
}

// BreakStaleStreaks deactivates streaks nobody touched yesterday.
func (j *Jobs) BreakStaleStreaks(ctx context.Context) {
	n, err := j.Engine.Streaks.BreakAllStale(ctx)
	if err != nil {
		log.Printf("[Scheduler] streak sweep: %v", err)
	}
	if n > 0 {
		log.Printf("💔 [Scheduler] broke %d stale streak(s)", n)
	}
}

// ExpireStale moves overdue quests and recommendations to EXPIRED.
func (j *Jobs) ExpireStale(ctx context.Context) {
	quests, err := j.Engine.Quests.ExpireStale(ctx)
	if err != nil {
		log.Printf("[Scheduler] quest expiry: %v", err)
	}
	recs, err := j.Engine.Recommendations.ExpireStale(ctx)
	if err != nil {
		log.Printf("[Scheduler] recommendation expiry: %v", err)
	}
	if quests+recs > 0 {
		log.Printf("[Scheduler] expired %d quest(s), %d recommendation(s)", quests, recs)
	}
}

// GenerateWeeklyQuests assigns the weekly set to every known user.
func (j *Jobs) GenerateWeeklyQuests(ctx context.Context) {
	n, err := j.Engine.Quests.GenerateWeeklyForAll(ctx)
	if err != nil {
		log.Printf("[Scheduler] weekly quests: %v", err)
	}
	log.Printf("✅ [Scheduler] weekly quests generated for %d user(s)", n)
}

// RecomputeRanks renumbers every leaderboard.
func (j *Jobs) RecomputeRanks(ctx context.Context) {
	if _, err := j.Engine.Leaderboards.RecomputeRanks(ctx); err != nil {
		log.Printf("[Scheduler] leaderboard ranks: %v", err)
	}
}

// StartScheduler registers every job and starts the scheduler. Call
// Shutdown on the result to stop it.
func StartScheduler(ctx context.Context, jobs *Jobs, rankInterval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	if rankInterval <= 0 {
		rankInterval = 5 * time.Minute
	}

	defs := []struct {
		name string
		def  gocron.JobDefinition
		fn   func(context.Context)
	}{
		{"break-stale-streaks", gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))), jobs.BreakStaleStreaks},
		{"expire-stale", gocron.DurationJob(1 * time.Hour), jobs.ExpireStale},
		{"weekly-quests", gocron.WeeklyJob(1, gocron.NewWeekdays(time.Monday), gocron.NewAtTimes(gocron.NewAtTime(0, 10, 0))), jobs.GenerateWeeklyQuests},
		{"leaderboard-ranks", gocron.DurationJob(rankInterval), jobs.RecomputeRanks},
	}
	for _, d := range defs {
		fn := d.fn
		if _, err := sched.NewJob(
			d.def,
			gocron.NewTask(func() { fn(ctx) }),
			gocron.WithName(d.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			_ = sched.Shutdown()
			return nil, err
		}
	}

	sched.Start()
	log.Printf("[Scheduler] started %d jobs", len(defs))
	return sched, nil
}

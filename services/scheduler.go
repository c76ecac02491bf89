package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler drives the time-based sweeps: no-show escalation and hold
// expiry across every registered table, plus the nightly history archive.
type Scheduler struct {
	Games    *GameService
	Queues   *QueueService
	Archiver interface{ ArchiveYesterday() }

	sched gocron.Scheduler
}

func NewScheduler(games *GameService, queues *QueueService, archiver interface{ ArchiveYesterday() }) *Scheduler {
	return &Scheduler{Games: games, Queues: queues, Archiver: archiver}
}

// Start registers the jobs and launches the scheduler. The sweeps are cheap
// and idempotent, so a short interval is fine.
func (s *Scheduler) Start() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Scheduler] init failed: %v", err)
		return
	}
	s.sched = sched
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(2*time.Second),
		gocron.NewTask(s.sweepTables),
	)

	if s.Archiver != nil {
		_, _ = sched.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 30, 0))),
			gocron.NewTask(s.Archiver.ArchiveYesterday),
		)
	}
}

// Stop shuts the scheduler down. Running jobs finish.
func (s *Scheduler) Stop() {
	if s.sched != nil {
		_ = s.sched.Shutdown()
	}
}

func (s *Scheduler) sweepTables() {
	for _, id := range s.Games.Store.IDs() {
		s.Games.SweepNoShows(id)
		s.Queues.SweepHolds(id)
	}
}

package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// LobbySweeper is the slice of the lobby directory the janitor needs.
type LobbySweeper interface {
	DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor periodically deletes abandoned lobbies. Leaving a lobby never
// deletes it; this scheduled sweep is the cleanup policy.
type Janitor struct {
	sweeper  LobbySweeper
	interval time.Duration
	maxIdle  time.Duration
	log      zerolog.Logger

	scheduler gocron.Scheduler
}

func NewJanitor(sweeper LobbySweeper, interval, maxIdle time.Duration, log zerolog.Logger) *Janitor {
	return &Janitor{
		sweeper:  sweeper,
		interval: interval,
		maxIdle:  maxIdle,
		log:      log.With().Str("component", "janitor").Logger(),
	}
}

func (j *Janitor) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(j.Sweep),
	); err != nil {
		return err
	}
	sched.Start()
	j.scheduler = sched
	j.log.Info().Dur("interval", j.interval).Dur("max_idle", j.maxIdle).Msg("lobby janitor started")
	return nil
}

func (j *Janitor) Stop() error {
	if j.scheduler == nil {
		return nil
	}
	return j.scheduler.Shutdown()
}

// Sweep removes lobbies that have sat empty past the idle cutoff.
func (j *Janitor) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := j.sweeper.DeleteEmptyBefore(ctx, time.Now().Add(-j.maxIdle))
	if err != nil {
		j.log.Error().Err(err).Msg("lobby sweep failed")
		return
	}
	if removed > 0 {
		j.log.Info().Int64("removed", removed).Msg("swept empty lobbies")
	}
}

package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streamerhub/hub-server-go/internal/repository"
)

// CleanupJob periodically deactivates giveaways and tournaments whose end
// time has passed, so expired events stop accepting interaction even if no
// admin touches them.
type CleanupJob struct {
	giveawayRepo   repository.GiveawayRepository
	tournamentRepo repository.TournamentRepository
	interval       time.Duration
	done           chan struct{}
}

func NewCleanupJob(
	giveawayRepo repository.GiveawayRepository,
	tournamentRepo repository.TournamentRepository,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		giveawayRepo:   giveawayRepo,
		tournamentRepo: tournamentRepo,
		interval:       interval,
		done:           make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "ended giveaways", j.giveawayRepo.DeactivateEnded)
	j.runCleanup(ctx, "ended tournaments", j.tournamentRepo.DeactivateEnded)
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to deactivate %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("deactivated %s", name)
	}
}

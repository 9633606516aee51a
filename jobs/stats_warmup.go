package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bodega-pos/bodega/internal/snapshot"
	"github.com/bodega-pos/bodega/internal/stats"
)

// StatsWarmupJob pre-populates the report cache from the latest snapshot so
// the first back-office report of the day is served warm. Reading the
// snapshot instead of live stores keeps the job process independent of the
// API process.
type StatsWarmupJob struct {
	Persister snapshot.Persister
	Cache     *stats.Cache
	Logger    *slog.Logger
	clock     func() time.Time
}

// NewStatsWarmupJob wires dependencies for the warmup handler.
func NewStatsWarmupJob(persister snapshot.Persister, cache *stats.Cache, logger *slog.Logger) *StatsWarmupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsWarmupJob{
		Persister: persister,
		Cache:     cache,
		Logger:    logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes stats warmup tasks.
func (j *StatsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("stats warmup: handler not configured")
	}
	var payload StatsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowMonths < 1 {
		payload.WindowMonths = 1
	}

	snap, err := j.Persister.Load(ctx)
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		j.Logger.Info("stats warmup skipped, no snapshot yet")
		return nil
	}
	if err != nil {
		j.Logger.Error("stats warmup load snapshot", slog.Any("error", err))
		return err
	}

	to := j.clock()
	from := to.AddDate(0, -payload.WindowMonths, 0)
	warmed := 0
	for _, filter := range []stats.TypeFilter{stats.FilterAll, stats.FilterClient, stats.FilterPersonnel} {
		summary := stats.Compute(snap.Transactions, from, to, filter)
		if err := j.Cache.Store(ctx, summary, stats.SummaryKeyParts(from, to, filter)...); err != nil {
			j.Logger.Error("stats warmup store", slog.String("filter", string(filter)), slog.Any("error", err))
			return err
		}
		warmed++
	}
	j.Logger.Info("stats warmup completed", slog.Int("summaries", warmed), slog.Int("transactions", len(snap.Transactions)))
	return nil
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/bodega-pos/bodega/internal/snapshot"
)

// SnapshotPruneJob trims the append-only snapshot table down to the newest
// rows so the table does not grow without bound.
type SnapshotPruneJob struct {
	Persister *snapshot.PostgresPersister
	Logger    *slog.Logger
}

// NewSnapshotPruneJob wires dependencies for the prune handler.
func NewSnapshotPruneJob(persister *snapshot.PostgresPersister, logger *slog.Logger) *SnapshotPruneJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotPruneJob{Persister: persister, Logger: logger}
}

// Handle processes snapshot prune tasks.
func (j *SnapshotPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("snapshot prune: handler not configured")
	}
	var payload SnapshotPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	removed, err := j.Persister.Prune(ctx, payload.Keep)
	if err != nil {
		j.Logger.Error("snapshot prune", slog.Any("error", err))
		return err
	}
	j.Logger.Info("snapshot prune completed", slog.Int64("removed", removed), slog.Int("keep", payload.Keep))
	return nil
}

package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	warmups []StatsWarmupPayload
	prunes  []SnapshotPrunePayload
}

func (e *recordingEnqueuer) EnqueueStatsWarmup(_ context.Context, payload StatsWarmupPayload) (*asynq.TaskInfo, error) {
	e.warmups = append(e.warmups, payload)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func (e *recordingEnqueuer) EnqueueSnapshotPrune(_ context.Context, payload SnapshotPrunePayload) (*asynq.TaskInfo, error) {
	e.prunes = append(e.prunes, payload)
	return &asynq.TaskInfo{ID: "task-2", Queue: QueueDefault}, nil
}

func newTriggerServer(t *testing.T, enqueue Enqueuer) *httptest.Server {
	t.Helper()
	h := NewHandler(nil, enqueue, 50, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/jobs", h.MountTriggerRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestTriggerWarmupDefaultsWindow(t *testing.T) {
	enq := &recordingEnqueuer{}
	srv := newTriggerServer(t, enq)

	resp, err := http.Post(srv.URL+"/jobs/warmup", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, []StatsWarmupPayload{{WindowMonths: 1}}, enq.warmups)

	var body struct {
		TaskID string `json:"task_id"`
		Type   string `json:"type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "task-1", body.TaskID)
	require.Equal(t, TaskStatsWarmup, body.Type)
}

func TestTriggerPruneHonorsBodyKeep(t *testing.T) {
	enq := &recordingEnqueuer{}
	srv := newTriggerServer(t, enq)

	resp, err := http.Post(srv.URL+"/jobs/prune", "application/json", strings.NewReader(`{"keep":7}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, []SnapshotPrunePayload{{Keep: 7}}, enq.prunes)
}

func TestTriggerPruneRejectsKeepBelowOne(t *testing.T) {
	enq := &recordingEnqueuer{}
	srv := newTriggerServer(t, enq)

	resp, err := http.Post(srv.URL+"/jobs/prune", "application/json", strings.NewReader(`{"keep":0}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, enq.prunes)
}

func TestTriggerWithoutQueueReturnsUnavailable(t *testing.T) {
	srv := newTriggerServer(t, nil)

	resp, err := http.Post(srv.URL+"/jobs/warmup", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

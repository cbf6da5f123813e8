// Package jobs runs catalog syncs and push runs on the asynq queue.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/soundbridge-av/soundbridge/internal/push"
	"github.com/soundbridge-av/soundbridge/internal/shared"
	"github.com/soundbridge-av/soundbridge/internal/suppliers"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogSync runs one supplier ingestion session.
	TaskCatalogSync = "catalog:sync"
	// TaskPushRun publishes unlisted products downstream.
	TaskPushRun = "push:run"
)

// CatalogSyncPayload describes one sync trigger.
type CatalogSyncPayload struct {
	Supplier    string `json:"supplier"`
	Limit       int    `json:"limit,omitempty"`
	DryRun      bool   `json:"dry_run,omitempty"`
	SessionName string `json:"session_name,omitempty"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// PushRunPayload describes one push trigger.
type PushRunPayload struct {
	Limit  int  `json:"limit,omitempty"`
	DryRun bool `json:"dry_run,omitempty"`
}

// NewCatalogSyncTask constructs an asynq task for one supplier sync.
func NewCatalogSyncTask(payload CatalogSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogSync, data), nil
}

// NewPushRunTask constructs an asynq task for one push run.
func NewPushRunTask(payload PushRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPushRun, data), nil
}

// Tasks holds the services the task handlers invoke.
type Tasks struct {
	syncs  *suppliers.Service
	pushes *push.Service
	logger *slog.Logger
}

// NewTasks wires the task handlers.
func NewTasks(syncs *suppliers.Service, pushes *push.Service, logger *slog.Logger) *Tasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tasks{syncs: syncs, pushes: pushes, logger: logger}
}

// HandleCatalogSync processes TaskCatalogSync tasks.
func (t *Tasks) HandleCatalogSync(ctx context.Context, task *asynq.Task) error {
	var payload CatalogSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	triggeredBy := payload.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = "worker"
	}

	result, err := t.syncs.Sync(ctx, payload.Supplier, suppliers.SyncOptions{
		Limit:       payload.Limit,
		DryRun:      payload.DryRun,
		SessionName: payload.SessionName,
		TriggeredBy: triggeredBy,
	})
	if err != nil {
		if errors.Is(err, shared.ErrSupplierUnknown) {
			t.logger.Error("sync task for unknown supplier dropped", slog.String("supplier", payload.Supplier))
			return asynq.SkipRetry
		}
		return err
	}

	t.logger.Info("sync task finished",
		slog.String("supplier", payload.Supplier),
		slog.String("session_id", result.SessionID),
		slog.Bool("success", result.Success),
		slog.Int("added", result.Added),
		slog.Int("updated", result.Updated),
		slog.Int("errors", len(result.Errors)))
	return nil
}

// HandlePushRun processes TaskPushRun tasks.
func (t *Tasks) HandlePushRun(ctx context.Context, task *asynq.Task) error {
	var payload PushRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	result, err := t.pushes.Run(ctx, push.RunOptions{Limit: payload.Limit, DryRun: payload.DryRun})
	if err != nil {
		return err
	}

	t.logger.Info("push task finished",
		slog.Int("examined", result.Examined),
		slog.Int("created", result.Created),
		slog.Int("matched", result.Matched),
		slog.Int("failed", result.Failed))
	return nil
}

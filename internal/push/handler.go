package push

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/soundbridge-av/soundbridge/internal/platform/httpx"
)

// RunEnqueuer hands a push trigger to the job queue.
type RunEnqueuer interface {
	EnqueuePush(ctx context.Context, opts RunOptions) (string, error)
}

// Handler is the push control surface.
type Handler struct {
	enqueuer RunEnqueuer
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler builds the handler.
func NewHandler(enqueuer RunEnqueuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{enqueuer: enqueuer, validate: validator.New(), logger: logger}
}

// MountRoutes registers the push routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/push/run", h.triggerRun)
}

type runRequest struct {
	Limit  int  `json:"limit" validate:"gte=0"`
	DryRun bool `json:"dry_run"`
}

func (h *Handler) triggerRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}

	taskID, err := h.enqueuer.EnqueuePush(r.Context(), RunOptions{Limit: req.Limit, DryRun: req.DryRun})
	if err != nil {
		h.logger.Error("enqueue push run", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("push run enqueued", slog.String("task_id", taskID), slog.Bool("dry_run", req.DryRun))
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"task_id": taskID,
		"dry_run": req.DryRun,
	})
}

package suppliers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/soundbridge-av/soundbridge/internal/platform/httpx"
	"github.com/soundbridge-av/soundbridge/internal/shared"
)

// SyncEnqueuer hands a sync trigger to the job queue. The control surface
// never runs syncs in-request.
type SyncEnqueuer interface {
	EnqueueSync(ctx context.Context, supplier string, opts SyncOptions) (string, error)
}

// Handler is the supplier control surface. No business logic lives here.
type Handler struct {
	svc      *Service
	enqueuer SyncEnqueuer
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler builds the handler.
func NewHandler(svc *Service, enqueuer SyncEnqueuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:      svc,
		enqueuer: enqueuer,
		validate: validator.New(),
		logger:   logger,
	}
}

// MountRoutes registers the supplier routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/suppliers", h.listSuppliers)
	r.Post("/suppliers/{name}/sync", h.triggerSync)
	r.Get("/suppliers/{name}/status", h.supplierStatus)
	r.Post("/suppliers/{name}/test", h.testConnection)
	r.Get("/sync-sessions", h.sessions)
	r.Get("/products/count", h.productCount)
}

type syncRequest struct {
	Limit       int    `json:"limit" validate:"gte=0"`
	DryRun      bool   `json:"dry_run"`
	SessionName string `json:"session_name" validate:"omitempty,max=120"`
}

func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req syncRequest
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
	if _, err := h.svc.Status(r.Context(), name); err != nil {
		httpx.RespondError(w, err)
		return
	}

	taskID, err := h.enqueuer.EnqueueSync(r.Context(), name, SyncOptions{
		Limit:       req.Limit,
		DryRun:      req.DryRun,
		SessionName: req.SessionName,
		TriggeredBy: "api",
	})
	if err != nil {
		h.logger.Error("enqueue sync", slog.String("supplier", name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("sync enqueued", slog.String("supplier", name), slog.String("task_id", taskID))
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"supplier": name,
		"task_id":  taskID,
		"dry_run":  req.DryRun,
	})
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"suppliers": h.svc.Connectors()})
}

func (h *Handler) supplierStatus(w http.ResponseWriter, r *http.Request) {
	supplier, err := h.svc.Status(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"name":          supplier.Name,
		"status":        supplier.Status,
		"last_sync":     supplier.LastSync,
		"error_message": supplier.ErrorMessage,
	})
}

func (h *Handler) testConnection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.svc.TestConnection(r.Context(), name); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"supplier": name, "reachable": true})
}

func (h *Handler) sessions(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r, 100)
	supplier := r.URL.Query().Get("supplier")

	sessions, pagination, err := h.svc.History(r.Context(), supplier, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"sessions":   renderSessions(sessions),
		"pagination": pagination,
	})
}

func (h *Handler) productCount(w http.ResponseWriter, r *http.Request) {
	total, bySupplier, err := h.svc.ProductCount(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"total":       total,
		"by_supplier": bySupplier,
	})
}

type sessionView struct {
	ID          string   `json:"id"`
	SupplierID  int64    `json:"supplier_id"`
	Name        string   `json:"name"`
	StartedAt   string   `json:"started_at"`
	CompletedAt *string  `json:"completed_at,omitempty"`
	Status      string   `json:"status"`
	Added       int      `json:"products_added"`
	Updated     int      `json:"products_updated"`
	Unchanged   int      `json:"products_unchanged"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	TriggeredBy string   `json:"triggered_by,omitempty"`
}

func renderSessions(sessions []SyncSession) []sessionView {
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		view := sessionView{
			ID:          s.ID,
			SupplierID:  s.SupplierID,
			Name:        s.Name,
			StartedAt:   s.StartedAt.Format(time.RFC3339),
			Status:      s.Status,
			Added:       s.Added,
			Updated:     s.Updated,
			Unchanged:   s.Unchanged,
			Errors:      s.Errors,
			Warnings:    s.Warnings,
			TriggeredBy: s.TriggeredBy,
		}
		if s.CompletedAt != nil {
			completed := s.CompletedAt.Format(time.RFC3339)
			view.CompletedAt = &completed
		}
		views = append(views, view)
	}
	return views
}

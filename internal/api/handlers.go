// Package api exposes the HTTP surface: store status, on-demand refresh and
// health. The API renders run and reconciliation results, it never
// interprets them.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pricecart/pricecart/internal/models"
	"github.com/pricecart/pricecart/internal/scraper"
)

// Stores is the store-configuration lookup the handlers read.
type Stores interface {
	ActiveStores(ctx context.Context) ([]models.Store, error)
	StoreByID(ctx context.Context, id int64) (*models.Store, error)
}

// Trigger enqueues an on-demand scrape run.
type Trigger interface {
	Trigger(store models.Store) error
}

// OutboxStatus reports outbox depth for the health endpoint.
type OutboxStatus interface {
	GetPendingCount(ctx context.Context) (int64, error)
	GetDeadLetterCount(ctx context.Context) (int64, error)
}

type Handlers struct {
	stores  Stores
	trigger Trigger
	outbox  OutboxStatus
	logger  *slog.Logger
}

func NewHandlers(stores Stores, trigger Trigger, outbox OutboxStatus, logger *slog.Logger) *Handlers {
	return &Handlers{
		stores:  stores,
		trigger: trigger,
		outbox:  outbox,
		logger:  logger,
	}
}

// StoreStatus is the API view of a store's scrape bookkeeping.
type StoreStatus struct {
	models.Store
	Offline bool `json:"offline"`
}

// ListStores handles store status listing
func (h *Handlers) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.stores.ActiveStores(r.Context())
	if err != nil {
		h.logger.Error("failed to list stores", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list stores")
		return
	}

	statuses := make([]StoreStatus, 0, len(stores))
	for _, s := range stores {
		statuses = append(statuses, StoreStatus{Store: s, Offline: s.Offline()})
	}

	h.respondJSON(w, http.StatusOK, statuses)
}

// GetStore handles single store status retrieval
func (h *Handlers) GetStore(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFromPath(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, StoreStatus{Store: *store, Offline: store.Offline()})
}

// RefreshStore handles on-demand scrape triggers
func (h *Handlers) RefreshStore(w http.ResponseWriter, r *http.Request) {
	store, ok := h.storeFromPath(w, r)
	if !ok {
		return
	}
	if !store.IsActive {
		h.respondError(w, http.StatusConflict, "store is not active")
		return
	}

	if err := h.trigger.Trigger(*store); err != nil {
		h.logger.Error("failed to enqueue refresh", "store_id", store.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to enqueue refresh")
		return
	}

	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":   "queued",
		"store_id": store.ID,
	})
}

// ListScrapers returns the supported scraper identifiers
func (h *Handlers) ListScrapers(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string][]string{"scrapers": scraper.Identifiers()})
}

// Health reports service status, degrading when the outbox backs up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	pendingCount, _ := h.outbox.GetPendingCount(r.Context())
	deadLetterCount, _ := h.outbox.GetDeadLetterCount(r.Context())

	health := map[string]interface{}{
		"status": "ok",
		"outbox": map[string]interface{}{
			"pending":     pendingCount,
			"dead_letter": deadLetterCount,
		},
	}

	status := http.StatusOK
	if pendingCount > 1000 {
		health["status"] = "warning"
		health["message"] = "high number of pending outbox events"
	}
	if deadLetterCount > 100 {
		health["status"] = "error"
		health["message"] = "high number of dead letter events"
		status = http.StatusServiceUnavailable
	}

	h.respondJSON(w, status, health)
}

func (h *Handlers) storeFromPath(w http.ResponseWriter, r *http.Request) (*models.Store, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "storeID"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid store id")
		return nil, false
	}

	store, err := h.stores.StoreByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load store", "store_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load store")
		return nil, false
	}
	if store == nil {
		h.respondError(w, http.StatusNotFound, "store not found")
		return nil, false
	}
	return store, true
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

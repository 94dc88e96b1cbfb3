package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sodiqardianto/edlink-scrap/common/db"
	"github.com/sodiqardianto/edlink-scrap/common/utils"
)

type HealthHandler struct {
	db     *db.DB
	router *chi.Mux
}

func NewHealthHandler(db *db.DB) *HealthHandler {
	h := &HealthHandler{
		db: db,
	}

	r := chi.NewRouter()
	r.Get("/", h.handleHealthCheck)
	r.Get("/database", h.handleDatabaseHealth)

	h.router = r
	return h
}

func (h *HealthHandler) Router() *chi.Mux {
	return h.router
}

func (h *HealthHandler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "edlink-scrap",
	}

	utils.WriteJSON(w, http.StatusOK, response)
}

func (h *HealthHandler) handleDatabaseHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats := h.db.Pool.Stat()
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"database": map[string]interface{}{
			"status":            "healthy",
			"total_conns":       stats.TotalConns(),
			"idle_conns":        stats.IdleConns(),
			"acquired_conns":    stats.AcquiredConns(),
			"max_conns":         stats.MaxConns(),
			"new_conns_count":   stats.NewConnsCount(),
			"acquire_count":     stats.AcquireCount(),
			"canceled_acquires": stats.CanceledAcquireCount(),
		},
	}

	if err := h.db.Ping(ctx); err != nil {
		response["status"] = "unhealthy"
		response["database"].(map[string]interface{})["status"] = "unhealthy"
		response["database"].(map[string]interface{})["error"] = err.Error()
		utils.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	utils.WriteJSON(w, http.StatusOK, response)
}

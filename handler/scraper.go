package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sodiqardianto/edlink-scrap/common"
	"github.com/sodiqardianto/edlink-scrap/common/messaging"
	"github.com/sodiqardianto/edlink-scrap/common/services"
	"github.com/sodiqardianto/edlink-scrap/common/utils"
	"github.com/sodiqardianto/edlink-scrap/scraper"
)

// ScrapeParams is the request body for starting a scrape.
type ScrapeParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Term     string `json:"term"`
}

type ScraperHandler struct {
	runner      *scraper.Runner
	broker      *messaging.NatsBroker
	bus         *scraper.Bus
	statusCache *services.StatusCache
	exporter    *scraper.Exporter
	router      *chi.Mux
}

// NewScraperHandler wires the scrape endpoints. broker, statusCache and
// exporter are optional; endpoints depending on a missing one report 503.
func NewScraperHandler(runner *scraper.Runner, broker *messaging.NatsBroker, bus *scraper.Bus, statusCache *services.StatusCache, exporter *scraper.Exporter) *ScraperHandler {
	h := &ScraperHandler{
		runner:      runner,
		broker:      broker,
		bus:         bus,
		statusCache: statusCache,
		exporter:    exporter,
	}

	r := chi.NewRouter()
	r.Post("/", h.handleRunSync)
	r.Post("/jobs", h.handleEnqueueJob)
	r.Get("/{sessionID}/events", h.handleEvents)
	r.Get("/{sessionID}/status", h.handleStatus)

	h.router = r
	return h
}

func (h *ScraperHandler) Router() *chi.Mux {
	return h.router
}

// handleRunSync runs a scrape inside the request and returns the full result.
// Long; intended for small accounts and manual runs. The async job endpoint
// is the production path.
func (h *ScraperHandler) handleRunSync(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}

	sessionID := uuid.NewString()
	result, err := h.runner.Run(r.Context(), scraper.RunParams{
		SessionID: sessionID,
		Email:     params.Email,
		Password:  params.Password,
		Term:      params.Term,
	})
	if err != nil {
		utils.WriteError(w, scrapeErrorStatus(err), err.Error())
		return
	}

	var artifact string
	if h.exporter != nil {
		path, err := h.exporter.Export(r.Context(), result)
		if err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to export run result")
		} else {
			artifact = path
		}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"artifact":   artifact,
		"result":     result,
	})
}

// handleEnqueueJob queues the scrape on JetStream and returns immediately
// with the session ID to follow.
func (h *ScraperHandler) handleEnqueueJob(w http.ResponseWriter, r *http.Request) {
	if h.broker == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Job queue not available")
		return
	}

	params, ok := h.decodeParams(w, r)
	if !ok {
		return
	}

	req := messaging.ScrapeRequest{
		SessionID: uuid.NewString(),
		Email:     params.Email,
		Password:  params.Password,
		Term:      params.Term,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to encode job")
		return
	}

	if err := h.broker.PublishSync(r.Context(), messaging.SubjectScrapeJobs, payload); err != nil {
		log.Error().Err(err).Msg("Failed to publish scrape job")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to queue scrape job")
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message":    "queued",
		"session_id": req.SessionID,
	})
}

// handleEvents streams the session's progress events as server-sent events
// until the run finishes or the client disconnects.
func (h *ScraperHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := h.bus.Subscribe(sessionID)
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			if event.Status.IsTerminal() {
				return
			}
		}
	}
}

// handleStatus returns the latest cached status of a session.
func (h *ScraperHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if h.statusCache == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Status cache not available")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	status, found, err := h.statusCache.Get(r.Context(), sessionID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to read session status")
		return
	}
	if !found {
		utils.WriteError(w, http.StatusNotFound, "Unknown session")
		return
	}

	utils.WriteJSON(w, http.StatusOK, status)
}

func (h *ScraperHandler) decodeParams(w http.ResponseWriter, r *http.Request) (ScrapeParams, bool) {
	var params ScrapeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return params, false
	}

	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return params, false
	}
	return params, true
}

// scrapeErrorStatus maps run failures to HTTP statuses.
func scrapeErrorStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrLoginFailed):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNoCourses):
		return http.StatusNotFound
	case errors.Is(err, common.ErrBrowserLaunch), errors.Is(err, common.ErrSemesterWidget):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

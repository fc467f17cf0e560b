package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/themed-dev/themed/internal/domain/settings"
	"github.com/themed-dev/themed/internal/domain/theme"
	"github.com/themed-dev/themed/internal/engine"
)

// Engine exposes the decision-engine operations the API needs.
type Engine interface {
	Status() engine.Status
	TriggerEvaluate(reason string)
	TriggerRandomization(reason string)
}

// Catalog exposes theme listing and lookup.
type Catalog interface {
	List() []theme.Descriptor
	Get(id string) (theme.Descriptor, error)
	Suggest(id string) string
	Count() int
}

// HistoryStore exposes the applied-theme log.
type HistoryStore interface {
	Recent(ctx context.Context, limit int) ([]theme.Applied, error)
}

// EventStream attaches websocket subscribers to the live decision feed.
type EventStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

// API groups the HTTP handlers and their dependencies.
type API struct {
	engine  Engine
	store   settings.Store
	catalog Catalog
	history HistoryStore
	events  EventStream
	logger  *slog.Logger
}

// New creates the HTTP handlers with explicit dependencies. history and
// events may be nil; the matching endpoints then degrade gracefully.
func New(
	eng Engine,
	store settings.Store,
	catalog Catalog,
	history HistoryStore,
	events EventStream,
	logger *slog.Logger,
) *API {
	return &API{
		engine:  eng,
		store:   store,
		catalog: catalog,
		history: history,
		events:  events,
		logger:  logger,
	}
}

// Logger returns the request logger used by HTTP middleware.
func (a *API) Logger() *slog.Logger {
	return a.logger
}

// Health reports liveness plus catalog and event-stream wiring.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	subscribers := 0
	if a.events != nil {
		subscribers = a.events.ClientCount()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"themes":      a.catalog.Count(),
		"subscribers": subscribers,
	})
}

// Status returns the engine snapshot.
func (a *API) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Status())
}

// Randomize asks the engine for a fresh random pick.
func (a *API) Randomize(w http.ResponseWriter, _ *http.Request) {
	a.engine.TriggerRandomization("api")
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// Evaluate asks the engine to re-evaluate its decision.
func (a *API) Evaluate(w http.ResponseWriter, _ *http.Request) {
	a.engine.TriggerEvaluate("api")
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// History lists recent theme applications, newest first.
func (a *API) History(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"items": []theme.Applied{}})
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = value
	}
	items, err := a.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Events upgrades the connection to the live event stream.
func (a *API) Events(w http.ResponseWriter, r *http.Request) {
	if a.events == nil {
		writeError(w, http.StatusNotFound, "events_disabled", "Event stream not enabled")
		return
	}
	a.events.ServeWS(w, r)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/themed-dev/themed/internal/domain/settings"
)

// ListRules returns the ordered schedule rule list.
func (a *API) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := a.store.ListRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	if rules == nil {
		rules = []settings.ScheduleRule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rules})
}

// CreateRule appends one rule. An id is assigned when the payload has none.
func (a *API) CreateRule(w http.ResponseWriter, r *http.Request) {
	var payload settings.ScheduleRule
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	stored, err := a.store.AddRule(r.Context(), payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// ReplaceRules swaps in a full ordered rule list, used for reordering.
func (a *API) ReplaceRules(w http.ResponseWriter, r *http.Request) {
	var payload []settings.ScheduleRule
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.store.ReplaceRules(r.Context(), payload); err != nil {
		writeError(w, http.StatusInternalServerError, "replace_failed", err.Error())
		return
	}
	rules, err := a.store.ListRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "replace_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rules})
}

// UpdateRule replaces the rule whose id is in the path.
func (a *API) UpdateRule(w http.ResponseWriter, r *http.Request, id string) {
	var payload settings.ScheduleRule
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	payload.ID = id
	if err := a.store.UpdateRule(r.Context(), payload); err != nil {
		if errors.Is(err, settings.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Schedule rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "update_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, payload.Normalized())
}

// DeleteRule removes the rule whose id is in the path.
func (a *API) DeleteRule(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.store.DeleteRule(r.Context(), id); err != nil {
		if errors.Is(err, settings.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Schedule rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

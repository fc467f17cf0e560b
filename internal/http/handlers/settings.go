package handlers

import (
	"encoding/json"
	"net/http"
)

// GetSettings returns the full settings document.
func (a *API) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Current())
}

// PutSettings replaces the settings document. The payload is decoded over
// the current document, so fields absent from the body keep their values.
// The store normalizes before persisting and the response reflects what
// actually took effect.
func (a *API) PutSettings(w http.ResponseWriter, r *http.Request) {
	payload := a.store.Current()
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.store.Save(r.Context(), payload); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.store.Current())
}

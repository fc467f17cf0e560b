package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/themed-dev/themed/internal/domain/theme"
)

// ListThemes returns the current catalog listing.
func (a *API) ListThemes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.catalog.List()})
}

// GetTheme returns one descriptor by id.
func (a *API) GetTheme(w http.ResponseWriter, _ *http.Request, id string) {
	descriptor, err := a.catalog.Get(id)
	if errors.Is(err, theme.ErrNotFound) {
		a.writeThemeNotFound(w, id)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, descriptor)
}

// ApplyTheme sets the manual theme id. The engine picks the change up
// through its settings subscription, so no explicit trigger is needed.
func (a *API) ApplyTheme(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := a.catalog.Get(id); errors.Is(err, theme.ErrNotFound) {
		a.writeThemeNotFound(w, id)
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "apply_failed", err.Error())
		return
	}
	if err := a.store.SetManualTheme(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "apply_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// writeThemeNotFound renders a 404 carrying the nearest catalog id, when
// one is close enough to be a plausible typo.
func (a *API) writeThemeNotFound(w http.ResponseWriter, id string) {
	body := map[string]any{
		"code":    "theme_not_found",
		"message": fmt.Sprintf("Theme %q is not in the catalog", id),
	}
	if suggestion := a.catalog.Suggest(id); suggestion != "" {
		body["suggestion"] = suggestion
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": body})
}

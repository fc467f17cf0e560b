// Package events broadcasts engine decisions to websocket subscribers.
package events

import (
	"time"

	"github.com/themed-dev/themed/internal/domain/theme"
)

const (
	TypeThemeApplied     = "theme_applied"
	TypeSettingsUpdated  = "settings_updated"
	TypeCatalogRefreshed = "catalog_refreshed"
)

// Event is one message on the live stream.
type Event struct {
	Type    string    `json:"type"`
	ThemeID string    `json:"theme_id,omitempty"`
	Source  string    `json:"source,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

// ThemeApplied wraps an applied decision.
func ThemeApplied(applied theme.Applied) Event {
	return Event{
		Type:    TypeThemeApplied,
		ThemeID: applied.ThemeID,
		Source:  string(applied.Source),
		Reason:  applied.Reason,
		At:      applied.AppliedAt,
	}
}

// SettingsUpdated signals a settings mutation.
func SettingsUpdated(at time.Time) Event {
	return Event{Type: TypeSettingsUpdated, At: at}
}

// CatalogRefreshed signals a catalog change.
func CatalogRefreshed(at time.Time) Event {
	return Event{Type: TypeCatalogRefreshed, At: at}
}

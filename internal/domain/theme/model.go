package theme

import "time"

// Source identifies which decision source selected the active theme.
type Source string

const (
	// SourceManual is the user-configured fixed theme.
	SourceManual Source = "manual"
	// SourceRandom is a remembered randomization pick.
	SourceRandom Source = "random"
	// SourceSchedule is a matching day/time schedule rule.
	SourceSchedule Source = "schedule"
)

// Descriptor is one theme known to the catalog.
type Descriptor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Note        string `json:"note,omitempty"`
}

// Applied describes one completed theme application.
type Applied struct {
	ThemeID   string    `json:"theme_id"`
	Source    Source    `json:"source"`
	Reason    string    `json:"reason"`
	AppliedAt time.Time `json:"applied_at"`
}

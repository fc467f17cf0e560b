package applier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/themed-dev/themed/internal/domain/theme"
)

// State is the on-disk record of the last applied theme.
type State struct {
	ThemeID   string    `json:"theme_id"`
	Source    string    `json:"source"`
	AppliedAt time.Time `json:"applied_at"`
}

// FileApplier records each decision in a JSON state file. The write is
// atomic (temp file then rename) so readers never observe a torn state.
type FileApplier struct {
	path   string
	logger *slog.Logger
}

// NewFile creates a state-file applier writing to path.
func NewFile(path string, logger *slog.Logger) *FileApplier {
	return &FileApplier{path: path, logger: logger}
}

// Apply writes the decision to the state file.
func (a *FileApplier) Apply(ctx context.Context, applied theme.Applied) error {
	state := State{
		ThemeID:   applied.ThemeID,
		Source:    string(applied.Source),
		AppliedAt: applied.AppliedAt.UTC(),
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}

// Current reads the theme id back from the state file. Any read or decode
// failure yields empty, never an error.
func (a *FileApplier) Current() string {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return ""
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		if a.logger != nil {
			a.logger.Warn("unreadable theme state file", "path", a.path, "err", err)
		}
		return ""
	}
	return state.ThemeID
}

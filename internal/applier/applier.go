// Package applier carries theme decisions out to the host environment.
package applier

import (
	"context"
	"log/slog"
	"strings"

	"github.com/themed-dev/themed/internal/domain/theme"
)

// KindFile writes the decision to a JSON state file.
const KindFile = "file"

// KindCommand writes the state file and additionally runs a hook command.
const KindCommand = "command"

// Applier applies a theme decision to the host. Implementations must be
// safe for concurrent use.
type Applier interface {
	Apply(ctx context.Context, applied theme.Applied) error
	// Current returns the theme id the host currently shows, empty when
	// unknown.
	Current() string
}

// New builds the applier for the configured kind. An unknown kind or a
// command kind without a command falls back to the state-file applier.
func New(kind, statePath, command string, logger *slog.Logger) Applier {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindCommand:
		if strings.TrimSpace(command) == "" {
			if logger != nil {
				logger.Warn("applier kind is command but no command configured, using file")
			}
			return NewFile(statePath, logger)
		}
		return NewCommand(statePath, command, logger)
	case KindFile, "":
		return NewFile(statePath, logger)
	default:
		if logger != nil {
			logger.Warn("unknown applier kind, using file", "kind", kind)
		}
		return NewFile(statePath, logger)
	}
}

package applier

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/themed-dev/themed/internal/domain/theme"
)

// hookTimeout bounds how long an apply hook may run.
const hookTimeout = 10 * time.Second

// CommandApplier writes the state file and then runs a hook command with
// the theme id appended as the final argument. The hook's outcome is
// logged and otherwise ignored.
type CommandApplier struct {
	*FileApplier

	command string
	logger  *slog.Logger
}

// NewCommand creates an applier running command after each state write.
// The command string is split on whitespace into argv.
func NewCommand(statePath, command string, logger *slog.Logger) *CommandApplier {
	return &CommandApplier{
		FileApplier: NewFile(statePath, logger),
		command:     command,
		logger:      logger,
	}
}

// Apply writes the state file, then fires the hook.
func (a *CommandApplier) Apply(ctx context.Context, applied theme.Applied) error {
	if err := a.FileApplier.Apply(ctx, applied); err != nil {
		return err
	}
	a.runHook(ctx, applied.ThemeID)
	return nil
}

func (a *CommandApplier) runHook(ctx context.Context, themeID string) {
	argv := strings.Fields(a.command)
	if len(argv) == 0 {
		return
	}
	argv = append(argv, themeID)

	hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
	defer cancel()

	out, err := exec.CommandContext(hookCtx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("apply hook failed", "command", argv[0], "theme", themeID, "err", err, "output", strings.TrimSpace(string(out)))
		}
		return
	}
	if a.logger != nil {
		a.logger.Debug("apply hook finished", "command", argv[0], "theme", themeID)
	}
}

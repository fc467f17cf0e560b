package engine

import (
	"context"
	"time"

	"github.com/themed-dev/themed/internal/domain/settings"
	"github.com/themed-dev/themed/internal/domain/theme"
	"github.com/themed-dev/themed/internal/events"
)

// schedulePollInterval is the fixed cadence for schedule re-evaluation
// while scheduling is enabled.
const schedulePollInterval = 30 * time.Second

// Run drives the engine until ctx is cancelled. All decision state is
// touched only from this goroutine; timers, triggers and the settings
// subscription are cases of one select loop.
func (e *Engine) Run(ctx context.Context) {
	settingsCh, unsubscribe := e.store.Subscribe()
	defer unsubscribe()

	// Start sequence: adopt whatever the host currently shows, assign a
	// manual default when none is set, evaluate once, then optionally
	// draw the startup random pick.
	e.mu.Lock()
	e.activeTheme = e.applier.Current()
	e.activeSource = theme.SourceManual
	e.mu.Unlock()
	e.ensureManualDefault(ctx)
	e.evaluate(ctx, "start")
	if s := e.store.Current(); s.RandomEnabled && s.RandomOnStartup {
		e.triggerRandomization(ctx, "startup")
	}

	var (
		randomTicker   *time.Ticker
		scheduleTicker *time.Ticker
		randomTick     <-chan time.Time
		scheduleTick   <-chan time.Time
	)
	disarm := func() {
		if randomTicker != nil {
			randomTicker.Stop()
			randomTicker, randomTick = nil, nil
		}
		if scheduleTicker != nil {
			scheduleTicker.Stop()
			scheduleTicker, scheduleTick = nil, nil
		}
	}
	// Stale timers must never fire after being logically disabled, so
	// arming always tears down the previous pair first.
	arm := func(s settings.Settings) {
		disarm()
		if s.RandomEnabled && s.RandomIntervalEnabled {
			randomTicker = time.NewTicker(s.RandomInterval())
			randomTick = randomTicker.C
		}
		if s.ScheduleEnabled {
			scheduleTicker = time.NewTicker(schedulePollInterval)
			scheduleTick = scheduleTicker.C
		}
	}
	arm(e.store.Current())
	defer disarm()

	for {
		select {
		case <-ctx.Done():
			return
		case <-settingsCh:
			s := e.store.Current()
			arm(s)
			if e.events != nil {
				e.events.Publish(events.SettingsUpdated(e.now().UTC()))
			}
			e.evaluate(ctx, "settings changed")
		case <-e.catalogCh:
			e.ensureManualDefault(ctx)
			e.evaluate(ctx, "catalog changed")
		case reason := <-e.randomCh:
			e.triggerRandomization(ctx, reason)
		case reason := <-e.evalCh:
			e.evaluate(ctx, reason)
		case <-randomTick:
			e.onRandomTick(ctx)
		case <-scheduleTick:
			e.onScheduleTick(ctx)
		}
	}
}

// onRandomTick handles an interval tick. A tick can already be pending
// when a settings change disables the interval; such stale ticks must
// not produce a pick.
func (e *Engine) onRandomTick(ctx context.Context) {
	s := e.store.Current()
	if !s.RandomEnabled || !s.RandomIntervalEnabled {
		return
	}
	e.triggerRandomization(ctx, "interval")
}

// onScheduleTick re-evaluates on the poll cadence, dropping ticks left
// over from before scheduling was disabled.
func (e *Engine) onScheduleTick(ctx context.Context) {
	if !e.store.Current().ScheduleEnabled {
		return
	}
	e.evaluate(ctx, "schedule poll")
}

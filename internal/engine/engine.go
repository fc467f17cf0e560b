// Package engine decides which theme should be active and applies the
// decision. Priority order: schedule rules, then a remembered random
// pick, then the manual choice.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/themed-dev/themed/internal/domain/settings"
	"github.com/themed-dev/themed/internal/domain/theme"
	"github.com/themed-dev/themed/internal/events"
	"github.com/themed-dev/themed/internal/random"
	"github.com/themed-dev/themed/internal/schedule"
)

// SettingsStore is the engine's view of the configuration store.
type SettingsStore interface {
	Current() settings.Settings
	SetManualTheme(ctx context.Context, themeID string) error
	Subscribe() (<-chan struct{}, func())
}

// Catalog is the engine's view of the available themes.
type Catalog interface {
	List() []theme.Descriptor
	IDs() []string
}

// Applier carries a decision out to the host.
type Applier interface {
	Apply(ctx context.Context, applied theme.Applied) error
	Current() string
}

// Recorder persists applied decisions. May be nil.
type Recorder interface {
	Add(ctx context.Context, entry theme.Applied) error
}

// Publisher pushes events to live subscribers. May be nil.
type Publisher interface {
	Publish(event events.Event)
}

// Status is a snapshot of the engine for the control API.
type Status struct {
	MasterEnabled   bool         `json:"master_enabled"`
	ActiveTheme     string       `json:"active_theme,omitempty"`
	ActiveSource    theme.Source `json:"active_source,omitempty"`
	LastRandomTheme string       `json:"last_random_theme,omitempty"`
	ThemeCount      int          `json:"theme_count"`
	RuleCount       int          `json:"rule_count"`
	Applications    int64        `json:"applications"`
	LastAppliedAt   *time.Time   `json:"last_applied_at,omitempty"`
}

// Engine owns the decision state. All mutation happens on the Run
// goroutine; the mutex exists so Status and the trigger methods can be
// called from HTTP handlers.
type Engine struct {
	store    SettingsStore
	catalog  Catalog
	applier  Applier
	history  Recorder
	events   Publisher
	logger   *slog.Logger
	selector *random.Selector
	now      func() time.Time

	evalCh    chan string
	randomCh  chan string
	catalogCh chan struct{}

	mu            sync.RWMutex
	activeTheme   string
	activeSource  theme.Source
	lastRandom    string
	applications  int64
	lastAppliedAt time.Time
}

// New creates the engine. history and publisher may be nil.
func New(
	store SettingsStore,
	catalog Catalog,
	applier Applier,
	history Recorder,
	publisher Publisher,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		store:     store,
		catalog:   catalog,
		applier:   applier,
		history:   history,
		events:    publisher,
		logger:    logger,
		selector:  random.NewSelector(nil),
		now:       time.Now,
		evalCh:    make(chan string, 1),
		randomCh:  make(chan string, 1),
		catalogCh: make(chan struct{}, 1),
	}
}

// TriggerEvaluate requests a re-evaluation. Requests arriving while the
// engine is busy coalesce.
func (e *Engine) TriggerEvaluate(reason string) {
	select {
	case e.evalCh <- reason:
	default:
	}
}

// TriggerRandomization requests a fresh random pick.
func (e *Engine) TriggerRandomization(reason string) {
	select {
	case e.randomCh <- reason:
	default:
	}
}

// NotifyCatalogChanged tells the engine the catalog was rescanned.
func (e *Engine) NotifyCatalogChanged() {
	select {
	case e.catalogCh <- struct{}{}:
	default:
	}
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	s := e.store.Current()
	e.mu.RLock()
	defer e.mu.RUnlock()
	status := Status{
		MasterEnabled:   s.MasterEnabled,
		ActiveTheme:     e.activeTheme,
		ActiveSource:    e.activeSource,
		LastRandomTheme: e.lastRandom,
		ThemeCount:      len(e.catalog.IDs()),
		RuleCount:       len(s.ScheduleRules),
		Applications:    e.applications,
	}
	if !e.lastAppliedAt.IsZero() {
		at := e.lastAppliedAt
		status.LastAppliedAt = &at
	}
	return status
}

// evaluate applies the highest-priority decision, or nothing when no
// source produces one. The currently displayed theme is never cleared.
func (e *Engine) evaluate(ctx context.Context, reason string) {
	s := e.store.Current()
	if !s.MasterEnabled {
		return
	}

	if s.ScheduleEnabled {
		if id := schedule.Resolve(s.ScheduleRules, e.now(), s.ScheduleTimezoneOffsetMinutes); id != "" {
			e.updateState(ctx, id, theme.SourceSchedule, reason)
			return
		}
	}

	e.mu.RLock()
	last := e.lastRandom
	e.mu.RUnlock()
	if s.RandomEnabled && last != "" {
		e.updateState(ctx, last, theme.SourceRandom, reason)
		return
	}

	if s.ManualThemeID != "" {
		e.updateState(ctx, s.ManualThemeID, theme.SourceManual, reason)
	}
}

// triggerRandomization picks a new random theme and re-evaluates. The
// pick is remembered even when a schedule rule currently overrides it,
// so it can resume once the window ends.
func (e *Engine) triggerRandomization(ctx context.Context, reason string) {
	s := e.store.Current()
	if !s.MasterEnabled || !s.RandomEnabled {
		return
	}

	candidates := random.EffectivePool(e.catalog.IDs(), s.RandomPool)
	e.mu.RLock()
	last := e.lastRandom
	e.mu.RUnlock()

	pick := e.selector.Pick(candidates, s.RandomCycleMode, s.RandomAvoidRepeat, last)
	if pick == "" {
		if e.logger != nil {
			e.logger.Debug("randomization produced no candidate", "reason", reason)
		}
		return
	}

	e.mu.Lock()
	e.lastRandom = pick
	e.mu.Unlock()
	if e.logger != nil {
		e.logger.Debug("random theme picked", "theme", pick, "reason", reason)
	}
	e.evaluate(ctx, reason)
}

// updateState applies the side effect unless the (theme, source) pair is
// already active.
func (e *Engine) updateState(ctx context.Context, themeID string, source theme.Source, reason string) {
	e.mu.Lock()
	if e.activeTheme == themeID && e.activeSource == source {
		e.mu.Unlock()
		if e.logger != nil {
			e.logger.Debug("duplicate application suppressed", "theme", themeID, "source", source)
		}
		return
	}
	appliedAt := e.now().UTC()
	e.activeTheme = themeID
	e.activeSource = source
	e.applications++
	e.lastAppliedAt = appliedAt
	e.mu.Unlock()

	applied := theme.Applied{ThemeID: themeID, Source: source, Reason: reason, AppliedAt: appliedAt}
	if err := e.applier.Apply(ctx, applied); err != nil && e.logger != nil {
		e.logger.Warn("theme apply failed", "theme", themeID, "err", err)
	}
	if e.history != nil {
		if err := e.history.Add(ctx, applied); err != nil && e.logger != nil {
			e.logger.Warn("history record failed", "err", err)
		}
	}
	if e.events != nil {
		e.events.Publish(events.ThemeApplied(applied))
	}
	if e.logger != nil {
		e.logger.Info("theme applied", "theme", themeID, "source", source, "reason", reason)
	}
}

// ensureManualDefault assigns the first catalog entry as the manual theme
// when none is configured. Runs at start and after catalog refreshes;
// a user-set id is never overwritten.
func (e *Engine) ensureManualDefault(ctx context.Context) {
	s := e.store.Current()
	if s.ManualThemeID != "" {
		return
	}
	themes := e.catalog.List()
	if len(themes) == 0 {
		return
	}
	first := themes[0].ID
	if err := e.store.SetManualTheme(ctx, first); err != nil {
		if e.logger != nil {
			e.logger.Warn("failed to assign manual default theme", "err", err)
		}
		return
	}
	if e.logger != nil {
		e.logger.Info("assigned manual default theme", "theme", first)
	}
}

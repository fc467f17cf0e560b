package settings

import (
	"strings"
	"time"
)

// ScheduleRule binds a theme to a day-set and a time window.
// Rules are evaluated in stored order; the first match wins.
type ScheduleRule struct {
	ID      string `json:"id" yaml:"id,omitempty"`
	Name    string `json:"name" yaml:"name"`
	ThemeID string `json:"theme_id" yaml:"theme"`
	// Days holds weekday numbers, Sunday = 0.
	Days  []int  `json:"days" yaml:"days"`
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// HasDay reports whether the rule covers the given weekday (Sunday = 0).
func (r ScheduleRule) HasDay(weekday int) bool {
	for _, d := range r.Days {
		if d == weekday {
			return true
		}
	}
	return false
}

// Normalized returns a copy with trimmed fields and a cleaned day set
// (deduplicated, restricted to 0..6, source order kept).
func (r ScheduleRule) Normalized() ScheduleRule {
	out := r
	out.ID = strings.TrimSpace(r.ID)
	out.Name = strings.TrimSpace(r.Name)
	out.ThemeID = strings.TrimSpace(r.ThemeID)
	out.Start = strings.TrimSpace(r.Start)
	out.End = strings.TrimSpace(r.End)
	seen := map[int]bool{}
	days := make([]int, 0, len(r.Days))
	for _, d := range r.Days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	out.Days = days
	return out
}

// Settings is the complete hot-reloadable engine configuration.
type Settings struct {
	MasterEnabled bool   `json:"master_enabled"`
	ManualThemeID string `json:"manual_theme_id"`

	RandomEnabled         bool     `json:"random_enabled"`
	RandomPool            []string `json:"random_pool"`
	RandomOnStartup       bool     `json:"random_on_startup"`
	RandomIntervalEnabled bool     `json:"random_interval_enabled"`
	RandomIntervalMinutes int      `json:"random_interval_minutes"`
	RandomAvoidRepeat     bool     `json:"random_avoid_repeat"`
	RandomCycleMode       bool     `json:"random_cycle_mode"`

	ScheduleEnabled               bool           `json:"schedule_enabled"`
	ScheduleRules                 []ScheduleRule `json:"schedule_rules"`
	ScheduleTimezoneOffsetMinutes int            `json:"schedule_timezone_offset_minutes"`
}

// Default returns the settings used before anything is persisted.
func Default() Settings {
	return Settings{
		MasterEnabled:         true,
		RandomPool:            []string{},
		RandomOnStartup:       true,
		RandomIntervalMinutes: 60,
		RandomAvoidRepeat:     true,
		ScheduleRules:         []ScheduleRule{},
	}
}

// Normalized returns a copy safe to evaluate and persist: interval clamped
// to one minute minimum, pool trimmed and deduplicated, rules normalized.
func (s Settings) Normalized() Settings {
	out := s
	out.ManualThemeID = strings.TrimSpace(s.ManualThemeID)
	if out.RandomIntervalMinutes < 1 {
		out.RandomIntervalMinutes = 1
	}
	seen := map[string]bool{}
	pool := make([]string, 0, len(s.RandomPool))
	for _, id := range s.RandomPool {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		pool = append(pool, id)
	}
	out.RandomPool = pool
	rules := make([]ScheduleRule, 0, len(s.ScheduleRules))
	for _, rule := range s.ScheduleRules {
		rules = append(rules, rule.Normalized())
	}
	out.ScheduleRules = rules
	return out
}

// RandomInterval converts the configured minutes into a tick interval.
func (s Settings) RandomInterval() time.Duration {
	minutes := s.RandomIntervalMinutes
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}

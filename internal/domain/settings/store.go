package settings

import "context"

// Store defines persistence and change notification for settings.
type Store interface {
	// Current returns the cached settings snapshot without touching storage.
	Current() Settings
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
	// SetManualTheme persists only the manual theme id.
	SetManualTheme(ctx context.Context, themeID string) error

	ListRules(ctx context.Context) ([]ScheduleRule, error)
	// AddRule appends a rule, assigning an id when none is set, and
	// returns the stored rule.
	AddRule(ctx context.Context, rule ScheduleRule) (ScheduleRule, error)
	// UpdateRule replaces the rule with a matching id. Returns
	// ErrRuleNotFound when no such rule exists.
	UpdateRule(ctx context.Context, rule ScheduleRule) error
	DeleteRule(ctx context.Context, id string) error
	ReplaceRules(ctx context.Context, rules []ScheduleRule) error

	// Subscribe returns a channel receiving one signal per settings
	// mutation and a cancel function releasing the subscription.
	Subscribe() (<-chan struct{}, func())
}

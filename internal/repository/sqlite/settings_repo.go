package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/themed-dev/themed/internal/domain/settings"
)

const (
	keyMasterEnabled         = "master_enabled"
	keyManualTheme           = "manual_theme_id"
	keyRandomEnabled         = "random_enabled"
	keyRandomPool            = "random_pool"
	keyRandomOnStartup       = "random_on_startup"
	keyRandomIntervalEnabled = "random_interval_enabled"
	keyRandomIntervalMinutes = "random_interval_minutes"
	keyRandomAvoidRepeat     = "random_avoid_repeat"
	keyRandomCycleMode       = "random_cycle_mode"
	keyScheduleEnabled       = "schedule_enabled"
	keyScheduleRules         = "schedule_rules"
	keyScheduleTZOffset      = "schedule_timezone_offset_minutes"
)

// SettingsRepository is the sqlite implementation of settings.Store.
// Values live in a key/value table; the pool and rule collections are
// stored as JSON text. A cached snapshot serves reads, and every
// successful mutation signals the subscribers.
type SettingsRepository struct {
	db *DB

	// writeMu serializes read-modify-write mutations.
	writeMu sync.Mutex

	mu      sync.RWMutex
	current settings.Settings
	subs    map[int]chan struct{}
	nextSub int
}

// NewSettingsRepository creates the sqlite-backed settings store. Call
// Load before first use to hydrate the cache.
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{
		db:      db,
		current: settings.Default(),
		subs:    make(map[int]chan struct{}),
	}
}

// Current returns the cached settings snapshot.
func (r *SettingsRepository) Current() settings.Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Load reads all stored keys, overlaying them onto defaults. Missing keys
// keep their default; unparsable scalars keep their default; corrupt
// collections degrade to empty with a warning.
func (r *SettingsRepository) Load(ctx context.Context) (settings.Settings, error) {
	rows, err := r.db.SQLDB().QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	raw := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings.Settings{}, err
		}
		raw[key] = value
	}
	if err := rows.Err(); err != nil {
		return settings.Settings{}, err
	}

	s := settings.Default()
	setBool(raw, keyMasterEnabled, &s.MasterEnabled)
	if v, ok := raw[keyManualTheme]; ok {
		s.ManualThemeID = v
	}
	setBool(raw, keyRandomEnabled, &s.RandomEnabled)
	setBool(raw, keyRandomOnStartup, &s.RandomOnStartup)
	setBool(raw, keyRandomIntervalEnabled, &s.RandomIntervalEnabled)
	setInt(raw, keyRandomIntervalMinutes, &s.RandomIntervalMinutes)
	setBool(raw, keyRandomAvoidRepeat, &s.RandomAvoidRepeat)
	setBool(raw, keyRandomCycleMode, &s.RandomCycleMode)
	setBool(raw, keyScheduleEnabled, &s.ScheduleEnabled)
	setInt(raw, keyScheduleTZOffset, &s.ScheduleTimezoneOffsetMinutes)
	if v, ok := raw[keyRandomPool]; ok {
		s.RandomPool = r.decodePool(v)
	}
	if v, ok := raw[keyScheduleRules]; ok {
		s.ScheduleRules = r.decodeRules(v)
	}
	s = s.Normalized()

	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
	return s, nil
}

// Save persists the full settings document and notifies subscribers.
func (r *SettingsRepository) Save(ctx context.Context, s settings.Settings) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	s = s.Normalized()
	pairs, err := encodePairs(s)
	if err != nil {
		return err
	}

	tx, err := r.db.SQLDB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, pair := range pairs {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO settings(key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			pair[0],
			pair[1],
			now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save settings key %s: %w", pair[0], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
	r.notify()
	return nil
}

// SetManualTheme persists only the manual theme id.
func (r *SettingsRepository) SetManualTheme(ctx context.Context, themeID string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.upsert(ctx, keyManualTheme, themeID); err != nil {
		return err
	}
	r.mu.Lock()
	r.current.ManualThemeID = themeID
	r.mu.Unlock()
	r.notify()
	return nil
}

// ListRules returns a copy of the ordered rule list.
func (r *SettingsRepository) ListRules(ctx context.Context) ([]settings.ScheduleRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]settings.ScheduleRule(nil), r.current.ScheduleRules...), nil
}

// AddRule appends a rule, assigning an id when none is set.
func (r *SettingsRepository) AddRule(ctx context.Context, rule settings.ScheduleRule) (settings.ScheduleRule, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	rule = rule.Normalized()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	rules := append(r.rulesCopy(), rule)
	if err := r.persistRules(ctx, rules); err != nil {
		return settings.ScheduleRule{}, err
	}
	return rule, nil
}

// UpdateRule replaces the rule with a matching id.
func (r *SettingsRepository) UpdateRule(ctx context.Context, rule settings.ScheduleRule) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	rule = rule.Normalized()
	rules := r.rulesCopy()
	found := false
	for i := range rules {
		if rules[i].ID == rule.ID {
			rules[i] = rule
			found = true
			break
		}
	}
	if !found {
		return settings.ErrRuleNotFound
	}
	return r.persistRules(ctx, rules)
}

// DeleteRule removes the rule with the given id.
func (r *SettingsRepository) DeleteRule(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	rules := r.rulesCopy()
	kept := make([]settings.ScheduleRule, 0, len(rules))
	for _, rule := range rules {
		if rule.ID != id {
			kept = append(kept, rule)
		}
	}
	if len(kept) == len(rules) {
		return settings.ErrRuleNotFound
	}
	return r.persistRules(ctx, kept)
}

// ReplaceRules swaps the whole ordered rule list, assigning ids to rules
// arriving without one.
func (r *SettingsRepository) ReplaceRules(ctx context.Context, rules []settings.ScheduleRule) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	normalized := make([]settings.ScheduleRule, 0, len(rules))
	for _, rule := range rules {
		rule = rule.Normalized()
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		normalized = append(normalized, rule)
	}
	return r.persistRules(ctx, normalized)
}

// Subscribe registers a change listener. The channel holds at most one
// pending signal; mutations while the listener is busy coalesce.
func (r *SettingsRepository) Subscribe() (<-chan struct{}, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	ch := make(chan struct{}, 1)
	r.subs[id] = ch
	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

func (r *SettingsRepository) notify() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (r *SettingsRepository) rulesCopy() []settings.ScheduleRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]settings.ScheduleRule(nil), r.current.ScheduleRules...)
}

func (r *SettingsRepository) persistRules(ctx context.Context, rules []settings.ScheduleRule) error {
	encoded, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	if err := r.upsert(ctx, keyScheduleRules, string(encoded)); err != nil {
		return err
	}
	r.mu.Lock()
	r.current.ScheduleRules = rules
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *SettingsRepository) upsert(ctx context.Context, key, value string) error {
	_, err := r.db.SQLDB().ExecContext(
		ctx,
		`INSERT INTO settings(key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (r *SettingsRepository) decodePool(encoded string) []string {
	pool := make([]string, 0)
	if err := json.Unmarshal([]byte(encoded), &pool); err != nil {
		if r.db.logger != nil {
			r.db.logger.Warn("failed to decode random pool, using empty set", "err", err)
		}
		return []string{}
	}
	return pool
}

func (r *SettingsRepository) decodeRules(encoded string) []settings.ScheduleRule {
	rules := make([]settings.ScheduleRule, 0)
	if err := json.Unmarshal([]byte(encoded), &rules); err != nil {
		if r.db.logger != nil {
			r.db.logger.Warn("failed to decode schedule rules, using empty set", "err", err)
		}
		return []settings.ScheduleRule{}
	}
	return rules
}

func encodePairs(s settings.Settings) ([][2]string, error) {
	pool, err := json.Marshal(s.RandomPool)
	if err != nil {
		return nil, fmt.Errorf("encode pool: %w", err)
	}
	rules, err := json.Marshal(s.ScheduleRules)
	if err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	return [][2]string{
		{keyMasterEnabled, strconv.FormatBool(s.MasterEnabled)},
		{keyManualTheme, s.ManualThemeID},
		{keyRandomEnabled, strconv.FormatBool(s.RandomEnabled)},
		{keyRandomPool, string(pool)},
		{keyRandomOnStartup, strconv.FormatBool(s.RandomOnStartup)},
		{keyRandomIntervalEnabled, strconv.FormatBool(s.RandomIntervalEnabled)},
		{keyRandomIntervalMinutes, strconv.Itoa(s.RandomIntervalMinutes)},
		{keyRandomAvoidRepeat, strconv.FormatBool(s.RandomAvoidRepeat)},
		{keyRandomCycleMode, strconv.FormatBool(s.RandomCycleMode)},
		{keyScheduleEnabled, strconv.FormatBool(s.ScheduleEnabled)},
		{keyScheduleRules, string(rules)},
		{keyScheduleTZOffset, strconv.Itoa(s.ScheduleTimezoneOffsetMinutes)},
	}, nil
}

func setBool(raw map[string]string, key string, dst *bool) {
	if v, ok := raw[key]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt(raw map[string]string, key string, dst *int) {
	if v, ok := raw[key]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/themed-dev/themed/internal/domain/settings"
	"github.com/themed-dev/themed/internal/domain/theme"
	"github.com/themed-dev/themed/internal/engine"
	"github.com/themed-dev/themed/internal/repository/sqlite"
)

type fakeEngine struct {
	status      engine.Status
	evaluations []string
	randoms     []string
}

func (f *fakeEngine) Status() engine.Status { return f.status }

func (f *fakeEngine) TriggerEvaluate(reason string) {
	f.evaluations = append(f.evaluations, reason)
}

func (f *fakeEngine) TriggerRandomization(reason string) {
	f.randoms = append(f.randoms, reason)
}

type fakeCatalog struct {
	items       []theme.Descriptor
	suggestions map[string]string
}

func (f *fakeCatalog) List() []theme.Descriptor {
	return append([]theme.Descriptor(nil), f.items...)
}

func (f *fakeCatalog) Get(id string) (theme.Descriptor, error) {
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return theme.Descriptor{}, theme.ErrNotFound
}

func (f *fakeCatalog) Suggest(id string) string { return f.suggestions[id] }

func (f *fakeCatalog) Count() int { return len(f.items) }

type testAPI struct {
	api     *API
	engine  *fakeEngine
	store   settings.Store
	history *sqlite.HistoryRepository
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := sqlite.NewSettingsRepository(db)
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatalf("load settings: %v", err)
	}
	history := sqlite.NewHistoryRepository(db)
	eng := &fakeEngine{status: engine.Status{MasterEnabled: true, ActiveTheme: "nord", ActiveSource: theme.SourceManual}}
	catalog := &fakeCatalog{
		items: []theme.Descriptor{
			{ID: "gruvbox", DisplayName: "Gruvbox"},
			{ID: "nord", DisplayName: "Nord"},
		},
		suggestions: map[string]string{"nordd": "nord"},
	}
	return &testAPI{
		api:     New(eng, store, catalog, history, nil, logger),
		engine:  eng,
		store:   store,
		history: history,
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) (string, map[string]any) {
	t.Helper()
	var body map[string]map[string]any
	decodeBody(t, rec, &body)
	code, _ := body["error"]["code"].(string)
	return code, body["error"]
}

func TestHealthReportsCatalogAndSubscribers(t *testing.T) {
	env := newTestAPI(t)
	rec := httptest.NewRecorder()
	env.api.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Fatalf("status field = %v", body["status"])
	}
	if body["themes"] != float64(2) {
		t.Fatalf("themes = %v, want 2", body["themes"])
	}
	if body["subscribers"] != float64(0) {
		t.Fatalf("subscribers = %v, want 0", body["subscribers"])
	}
}

func TestStatusReturnsEngineSnapshot(t *testing.T) {
	env := newTestAPI(t)
	rec := httptest.NewRecorder()
	env.api.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var got engine.Status
	decodeBody(t, rec, &got)
	if !got.MasterEnabled || got.ActiveTheme != "nord" || got.ActiveSource != theme.SourceManual {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestListThemesReturnsCatalog(t *testing.T) {
	env := newTestAPI(t)
	rec := httptest.NewRecorder()
	env.api.ListThemes(rec, httptest.NewRequest(http.MethodGet, "/api/themes", nil))

	var body struct {
		Items []theme.Descriptor `json:"items"`
	}
	decodeBody(t, rec, &body)
	if len(body.Items) != 2 || body.Items[0].ID != "gruvbox" {
		t.Fatalf("unexpected listing: %+v", body.Items)
	}
}

func TestGetThemeUnknownIDCarriesSuggestion(t *testing.T) {
	env := newTestAPI(t)
	rec := httptest.NewRecorder()
	env.api.GetTheme(rec, httptest.NewRequest(http.MethodGet, "/api/themes/nordd", nil), "nordd")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	code, errBody := errorCode(t, rec)
	if code != "theme_not_found" {
		t.Fatalf("code = %q", code)
	}
	if errBody["suggestion"] != "nord" {
		t.Fatalf("suggestion = %v, want nord", errBody["suggestion"])
	}
}

func TestGetThemeUnknownIDWithoutSuggestion(t *testing.T) {
	env := newTestAPI(t)
	rec := httptest.NewRecorder()
	env.api.GetTheme(rec, httptest.NewRequest(http.MethodGet, "/api/themes/zzz", nil), "zzz")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	_, errBody := errorCode(t, rec)
	if _, ok := errBody["suggestion"]; ok {
		t.Fatalf("suggestion should be absent, got %v", errBody["suggestion"])
	}
}

func TestApplyThemePersistsManualSelection(t *testing.T) {
	env := newTestAPI(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/themes/gruvbox/apply", nil)
	env.api.ApplyTheme(rec, req, "gruvbox")

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if got := env.store.Current().ManualThemeID; got != "gruvbox" {
		t.Fatalf("manual theme = %q, want gruvbox", got)
	}
}

func TestApplyThemeUnknownIDRejected(t *testing.T) {
	env := newTestAPI(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/themes/nordd/apply", nil)
	env.api.ApplyTheme(rec, req, "nordd")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := env.store.Current().ManualThemeID; got != "" {
		t.Fatalf("manual theme should stay empty, got %q", got)
	}
}

func TestPutSettingsNormalizesInterval(t *testing.T) {
	env := newTestAPI(t)
	body := strings.NewReader(`{"random_interval_minutes": 0, "random_pool": ["nord", "nord", " gruvbox "]}`)
	rec := httptest.NewRecorder()
	env.api.PutSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var saved settings.Settings
	decodeBody(t, rec, &saved)
	if saved.RandomIntervalMinutes != 1 {
		t.Fatalf("interval = %d, want 1", saved.RandomIntervalMinutes)
	}
	if len(saved.RandomPool) != 2 || saved.RandomPool[1] != "gruvbox" {
		t.Fatalf("pool = %v, want deduplicated and trimmed", saved.RandomPool)
	}
}

func TestPutSettingsKeepsAbsentFields(t *testing.T) {
	env := newTestAPI(t)
	if err := env.store.Save(context.Background(), settings.Settings{
		MasterEnabled: true,
		ManualThemeID: "nord",
	}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"random_enabled": true}`)
	env.api.PutSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings", body))

	var saved settings.Settings
	decodeBody(t, rec, &saved)
	if !saved.RandomEnabled {
		t.Fatalf("random_enabled not applied")
	}
	if saved.ManualThemeID != "nord" || !saved.MasterEnabled {
		t.Fatalf("absent fields lost: %+v", saved)
	}
}

func TestPutSettingsRejectsBadJSON(t *testing.T) {
	env := newTestAPI(t)
	rec := httptest.NewRecorder()
	env.api.PutSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader("{")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code, _ := errorCode(t, rec); code != "invalid_payload" {
		t.Fatalf("code = %q", code)
	}
}

func TestCreateRuleAssignsID(t *testing.T) {
	env := newTestAPI(t)
	body := strings.NewReader(`{"name": "Work hours", "theme_id": "nord", "days": [1,2,3,4,5], "start": "09:00", "end": "17:00"}`)
	rec := httptest.NewRecorder()
	env.api.CreateRule(rec, httptest.NewRequest(http.MethodPost, "/api/rules", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var stored settings.ScheduleRule
	decodeBody(t, rec, &stored)
	if stored.ID == "" {
		t.Fatalf("rule id not assigned")
	}
	if stored.ThemeID != "nord" || len(stored.Days) != 5 {
		t.Fatalf("unexpected stored rule: %+v", stored)
	}

	rules, err := env.store.ListRules(context.Background())
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != stored.ID {
		t.Fatalf("rule not persisted: %+v", rules)
	}
}

func TestUpdateRuleUnknownIDReturns404(t *testing.T) {
	env := newTestAPI(t)
	body := strings.NewReader(`{"name": "Evening", "theme_id": "nord", "days": [0], "start": "18:00", "end": "23:00"}`)
	rec := httptest.NewRecorder()
	env.api.UpdateRule(rec, httptest.NewRequest(http.MethodPut, "/api/rules/missing", body), "missing")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code, _ := errorCode(t, rec); code != "not_found" {
		t.Fatalf("code = %q", code)
	}
}

func TestUpdateRuleOverwritesExisting(t *testing.T) {
	env := newTestAPI(t)
	stored, err := env.store.AddRule(context.Background(), settings.ScheduleRule{
		Name: "Work", ThemeID: "nord", Days: []int{1}, Start: "09:00", End: "17:00",
	})
	if err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	body := strings.NewReader(`{"name": "Deep work", "theme_id": "gruvbox", "days": [1,2], "start": "10:00", "end": "16:00"}`)
	rec := httptest.NewRecorder()
	env.api.UpdateRule(rec, httptest.NewRequest(http.MethodPut, "/api/rules/"+stored.ID, body), stored.ID)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	rules, err := env.store.ListRules(context.Background())
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(rules) != 1 || rules[0].ThemeID != "gruvbox" || rules[0].Name != "Deep work" {
		t.Fatalf("rule not updated: %+v", rules)
	}
}

func TestDeleteRuleRemovesAndThen404s(t *testing.T) {
	env := newTestAPI(t)
	stored, err := env.store.AddRule(context.Background(), settings.ScheduleRule{
		Name: "Work", ThemeID: "nord", Days: []int{1}, Start: "09:00", End: "17:00",
	})
	if err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	rec := httptest.NewRecorder()
	env.api.DeleteRule(rec, httptest.NewRequest(http.MethodDelete, "/api/rules/"+stored.ID, nil), stored.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.api.DeleteRule(rec, httptest.NewRequest(http.MethodDelete, "/api/rules/"+stored.ID, nil), stored.ID)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestReplaceRulesReorders(t *testing.T) {
	env := newTestAPI(t)
	first, err := env.store.AddRule(context.Background(), settings.ScheduleRule{
		Name: "First", ThemeID: "nord", Days: []int{1}, Start: "09:00", End: "12:00",
	})
	if err != nil {
		t.Fatalf("seed rule: %v", err)
	}
	second, err := env.store.AddRule(context.Background(), settings.ScheduleRule{
		Name: "Second", ThemeID: "gruvbox", Days: []int{1}, Start: "12:00", End: "18:00",
	})
	if err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	payload, err := json.Marshal([]settings.ScheduleRule{second, first})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	rec := httptest.NewRecorder()
	env.api.ReplaceRules(rec, httptest.NewRequest(http.MethodPut, "/api/rules", strings.NewReader(string(payload))))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Items []settings.ScheduleRule `json:"items"`
	}
	decodeBody(t, rec, &body)
	if len(body.Items) != 2 || body.Items[0].ID != second.ID || body.Items[1].ID != first.ID {
		t.Fatalf("order not replaced: %+v", body.Items)
	}
}

func TestRandomizeAndEvaluateTriggerEngine(t *testing.T) {
	env := newTestAPI(t)

	rec := httptest.NewRecorder()
	env.api.Randomize(rec, httptest.NewRequest(http.MethodPost, "/api/randomize", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("randomize status = %d, want 202", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.api.Evaluate(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("evaluate status = %d, want 202", rec.Code)
	}

	if len(env.engine.randoms) != 1 || env.engine.randoms[0] != "api" {
		t.Fatalf("randomization triggers = %v", env.engine.randoms)
	}
	if len(env.engine.evaluations) != 1 || env.engine.evaluations[0] != "api" {
		t.Fatalf("evaluate triggers = %v", env.engine.evaluations)
	}
}

func TestHistoryRejectsInvalidLimit(t *testing.T) {
	env := newTestAPI(t)
	rec := httptest.NewRecorder()
	env.api.History(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code, _ := errorCode(t, rec); code != "invalid_limit" {
		t.Fatalf("code = %q", code)
	}
}

func TestHistoryReturnsNewestFirst(t *testing.T) {
	env := newTestAPI(t)
	ctx := context.Background()
	for _, id := range []string{"nord", "gruvbox"} {
		if err := env.history.Add(ctx, theme.Applied{ThemeID: id, Source: theme.SourceManual, Reason: "test"}); err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	env.api.History(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Items []theme.Applied `json:"items"`
	}
	decodeBody(t, rec, &body)
	if len(body.Items) != 2 || body.Items[0].ThemeID != "gruvbox" {
		t.Fatalf("unexpected history order: %+v", body.Items)
	}
}

func TestEventsWithoutHubReturns404(t *testing.T) {
	env := newTestAPI(t)
	rec := httptest.NewRecorder()
	env.api.Events(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code, _ := errorCode(t, rec); code != "events_disabled" {
		t.Fatalf("code = %q", code)
	}
}

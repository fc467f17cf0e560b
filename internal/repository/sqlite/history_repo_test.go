package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/themed-dev/themed/internal/domain/theme"
)

func TestHistoryRepository_AddAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(newTestDB(t))

	base := time.Date(2024, time.March, 11, 10, 0, 0, 0, time.UTC)
	entries := []theme.Applied{
		{ThemeID: "work", Source: theme.SourceSchedule, Reason: "schedule poll", AppliedAt: base},
		{ThemeID: "nord", Source: theme.SourceRandom, Reason: "interval", AppliedAt: base.Add(time.Hour)},
		{ThemeID: "dark", Source: theme.SourceManual, Reason: "api", AppliedAt: base.Add(2 * time.Hour)},
	}
	for _, entry := range entries {
		if err := repo.Add(ctx, entry); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("recent returned %d entries, want 3", len(got))
	}
	if got[0].ThemeID != "dark" || got[2].ThemeID != "work" {
		t.Fatalf("unexpected order: %v then %v", got[0].ThemeID, got[2].ThemeID)
	}
	if got[0].Source != theme.SourceManual {
		t.Fatalf("source = %q, want manual", got[0].Source)
	}
	if !got[2].AppliedAt.Equal(base) {
		t.Fatalf("applied_at = %s, want %s", got[2].AppliedAt, base)
	}

	limited, err := repo.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ThemeID != "dark" {
		t.Fatalf("limited = %+v, want newest only", limited)
	}
}

func TestHistoryRepository_PrunesBeyondRetention(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(newTestDB(t))

	for i := 0; i < historyRetention+25; i++ {
		entry := theme.Applied{
			ThemeID:   fmt.Sprintf("theme-%d", i),
			Source:    theme.SourceRandom,
			Reason:    "interval",
			AppliedAt: time.Now().UTC(),
		}
		if err := repo.Add(ctx, entry); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	got, err := repo.Recent(ctx, historyRetention)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != historyRetention {
		t.Fatalf("retained %d rows, want %d", len(got), historyRetention)
	}
	if got[0].ThemeID != fmt.Sprintf("theme-%d", historyRetention+24) {
		t.Fatalf("newest = %q, want last inserted", got[0].ThemeID)
	}
}

func TestHistoryRepository_ZeroAppliedAtDefaultsToNow(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(newTestDB(t))

	if err := repo.Add(ctx, theme.Applied{ThemeID: "nord", Source: theme.SourceManual}); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := repo.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].AppliedAt.IsZero() {
		t.Fatalf("expected non-zero applied_at, got %+v", got)
	}
}

package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/yungbote/storefront-layout/internal/data/db"
	"github.com/yungbote/storefront-layout/internal/domain/layout"
)

func TestGormStoreAppendAndList(t *testing.T) {
	gdb, err := db.Open(nil, db.Config{Driver: db.DriverSQLite, SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := NewGormStore(gdb)
	ctx := context.Background()

	prefs := layout.DefaultPreferenceRecord()
	summary := layout.ConstraintsSummary{
		Hard:              layout.HardConstraints{ColorScheme: "light", ExcludedIDs: []string{"hero_base_v1"}},
		GenreWeights:      map[string]float64{"base": 1},
		ExplorationBudget: 0.25,
	}
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 2; i++ {
		err := store.Append(ctx, Snapshot{
			SessionID:   "sess-1",
			PageType:    "home",
			DeviceType:  "desktop",
			Preferences: prefs,
			Constraints: summary,
			Timestamp:   t0.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	_ = store.Append(ctx, Snapshot{SessionID: "other", Preferences: prefs, Timestamp: t0})

	rows, err := ListBySession(ctx, gdb, "sess-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: want=2 got=%d", len(rows))
	}
	if rows[0].ID == rows[1].ID {
		t.Fatalf("snapshot ids should be unique")
	}
	if rows[0].PreferenceVersion != layout.PreferenceVersion {
		t.Fatalf("version: want=%s got=%s", layout.PreferenceVersion, rows[0].PreferenceVersion)
	}

	var got layout.ConstraintsSummary
	if err := json.Unmarshal(rows[0].ConstraintsSummary, &got); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if got.ExplorationBudget != 0.25 || !got.Hard.Excludes("hero_base_v1") {
		t.Fatalf("summary round trip: got=%+v", got)
	}
}

func TestDiscardAcceptsEverything(t *testing.T) {
	if err := Discard.Append(context.Background(), Snapshot{}); err != nil {
		t.Fatalf("discard: %v", err)
	}
}

// Package snapshot appends pipeline inputs to durable storage for offline
// analysis. Writes are best effort from the pipeline's point of view.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
)

// Snapshot is one pipeline input as handed to a Store.
type Snapshot struct {
	SessionID   string
	PageType    string
	DeviceType  string
	Preferences layout.PreferenceRecord
	Constraints layout.ConstraintsSummary
	Timestamp   time.Time
}

type Store interface {
	Append(ctx context.Context, s Snapshot) error
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (g *gormStore) Append(ctx context.Context, s Snapshot) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

func toRow(s Snapshot) (layout.PreferenceSnapshot, error) {
	prefs, err := json.Marshal(s.Preferences)
	if err != nil {
		return layout.PreferenceSnapshot{}, fmt.Errorf("encode preferences: %w", err)
	}
	summary, err := json.Marshal(s.Constraints)
	if err != nil {
		return layout.PreferenceSnapshot{}, fmt.Errorf("encode constraints: %w", err)
	}
	version := s.Preferences.Version
	if version == "" {
		version = layout.PreferenceVersion
	}
	ts := s.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return layout.PreferenceSnapshot{
		SessionID:          s.SessionID,
		PageType:           s.PageType,
		DeviceType:         s.DeviceType,
		PreferenceVersion:  version,
		Preferences:        datatypes.JSON(prefs),
		ConstraintsSummary: datatypes.JSON(summary),
		Timestamp:          ts.UTC(),
	}, nil
}

// ListBySession returns a session's snapshots oldest first.
func ListBySession(ctx context.Context, db *gorm.DB, sessionID string) ([]layout.PreferenceSnapshot, error) {
	var out []layout.PreferenceSnapshot
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("captured_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

type discard struct{}

// Discard drops every snapshot. Used when no database is configured.
var Discard Store = discard{}

func (discard) Append(context.Context, Snapshot) error { return nil }

package layout

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PreferenceSnapshot is an append-only record of one pipeline input and the
// constraints derived from it. Rows are never updated.
type PreferenceSnapshot struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID          string         `gorm:"column:session_id;not null;index" json:"session_id"`
	PageType           string         `gorm:"column:page_type;not null" json:"page_type"`
	DeviceType         string         `gorm:"column:device_type;not null" json:"device_type"`
	PreferenceVersion  string         `gorm:"column:preference_version;not null" json:"preference_version"`
	Preferences        datatypes.JSON `gorm:"column:preferences;not null" json:"preferences"`
	ConstraintsSummary datatypes.JSON `gorm:"column:constraints_summary;not null" json:"constraints_summary"`
	Timestamp          time.Time      `gorm:"column:captured_at;not null;index" json:"timestamp"`
	CreatedAt          time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (PreferenceSnapshot) TableName() string { return "preference_snapshot" }

func (s *PreferenceSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ConstraintsSummary is the slice of Constraints worth keeping durably.
type ConstraintsSummary struct {
	Hard              HardConstraints    `json:"hard"`
	GenreWeights      map[string]float64 `json:"genre_weights"`
	ExplorationBudget float64            `json:"exploration_budget"`
}

func SummarizeConstraints(c Constraints) ConstraintsSummary {
	return ConstraintsSummary{
		Hard:              c.Hard,
		GenreWeights:      c.Soft.GenreWeights,
		ExplorationBudget: c.ExplorationBudget,
	}
}

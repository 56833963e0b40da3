package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/yungbote/storefront-layout/internal/pkg/errors"
)

// PreferenceVersion tags the shape of PreferenceRecord carried in session
// state and snapshots.
const PreferenceVersion = "v1"

const (
	ColorSchemeDark    = "dark"
	ColorSchemeLight   = "light"
	ColorSchemeVibrant = "vibrant"

	CornerSharp   = "sharp"
	CornerRounded = "rounded"
	CornerPill    = "pill"

	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"

	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"

	WeightLight   = "light"
	WeightRegular = "regular"
	WeightBold    = "bold"

	ScrollSlow     = "slow"
	ScrollModerate = "moderate"
	ScrollFast     = "fast"

	PaceSpeed    = "speed"
	PaceBalanced = "balanced"
	PaceAccuracy = "accuracy"

	DepthShallow  = "shallow"
	DepthModerate = "moderate"
	DepthDeep     = "deep"
)

type VisualTraits struct {
	ColorScheme      string `json:"color_scheme" validate:"oneof=dark light vibrant"`
	CornerRadius     string `json:"corner_radius" validate:"oneof=sharp rounded pill"`
	ButtonSize       string `json:"button_size" validate:"oneof=small medium large"`
	Density          string `json:"density" validate:"oneof=low medium high"`
	TypographyWeight string `json:"typography_weight" validate:"oneof=light regular bold"`
}

type InteractionTraits struct {
	DecisionConfidence   string `json:"decision_confidence" validate:"oneof=low medium high"`
	ExplorationTolerance string `json:"exploration_tolerance" validate:"oneof=low medium high"`
	ScrollBehavior       string `json:"scroll_behavior" validate:"oneof=slow moderate fast"`
}

type BehavioralTraits struct {
	SpeedVsAccuracy string `json:"speed_vs_accuracy" validate:"oneof=speed balanced accuracy"`
	EngagementDepth string `json:"engagement_depth" validate:"oneof=shallow moderate deep"`
}

// PreferenceRecord is the canonical profile produced upstream for one
// inference cycle. A newer record replaces the previous one for a session;
// records are never edited in place.
type PreferenceRecord struct {
	Version     string            `json:"version,omitempty"`
	Visual      VisualTraits      `json:"visual"`
	Interaction InteractionTraits `json:"interaction"`
	Behavioral  BehavioralTraits  `json:"behavioral"`
}

func DefaultPreferenceRecord() PreferenceRecord {
	return PreferenceRecord{
		Version: PreferenceVersion,
		Visual: VisualTraits{
			ColorScheme:      ColorSchemeLight,
			CornerRadius:     CornerRounded,
			ButtonSize:       SizeMedium,
			Density:          LevelMedium,
			TypographyWeight: WeightRegular,
		},
		Interaction: InteractionTraits{
			DecisionConfidence:   LevelMedium,
			ExplorationTolerance: LevelMedium,
			ScrollBehavior:       ScrollModerate,
		},
		Behavioral: BehavioralTraits{
			SpeedVsAccuracy: PaceBalanced,
			EngagementDepth: DepthModerate,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every enumerated field. Call it where external data
// enters the pipeline; nothing downstream re-validates.
func (p PreferenceRecord) Validate() error {
	if p.Version != "" && p.Version != PreferenceVersion {
		return fmt.Errorf("unsupported preference version %q: %w", p.Version, pkgerrors.ErrInvalidArgument)
	}
	return validationError(validate.Struct(p))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%v: %w", err, pkgerrors.ErrInvalidArgument)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s=%v (want one of %s)", fe.Namespace(), fe.Value(), fe.Param()))
	}
	return fmt.Errorf("%s: %w", strings.Join(parts, "; "), pkgerrors.ErrInvalidArgument)
}

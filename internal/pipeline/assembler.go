package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/platform/logger"
)

const (
	DefaultAccentColor = "#3b82f6"

	// Prop markers on exploration components.
	PropIsExploration = "_is_exploration"
	PropModuleLoud    = "_module_loud"
)

var (
	borderRadiusTokens = map[string]string{
		layout.CornerSharp:   "0px",
		layout.CornerRounded: "8px",
		layout.CornerPill:    "9999px",
	}
	fontWeightTokens = map[string]string{
		layout.WeightLight:   "300",
		layout.WeightRegular: "400",
		layout.WeightBold:    "700",
	}
	themeTokens = map[string]string{
		layout.ColorSchemeDark:    "dark",
		layout.ColorSchemeLight:   "light",
		layout.ColorSchemeVibrant: "vibrant",
	}
)

func defaultProps(slot string) map[string]any {
	switch slot {
	case layout.SlotHero:
		return map[string]any{"title": "Welcome", "subtitle": "Discover our products"}
	case layout.SlotProductGrid:
		return map[string]any{"columns": 4, "limit": 12}
	case layout.SlotCTA:
		return map[string]any{"title": "Ready to get started?", "buttonText": "Shop Now"}
	default:
		return map[string]any{}
	}
}

// Assembler turns a selection into a hashed layout schema.
type Assembler struct {
	log *logger.Logger
	Now func() time.Time
}

func NewAssembler(log *logger.Logger) *Assembler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Assembler{log: log.With("component", "LayoutAssembler"), Now: time.Now}
}

// Assemble builds the schema for one run. changed is false when the new hash
// equals previousHash; the full schema is returned either way and the
// caller decides whether to publish.
func (a *Assembler) Assemble(sessionID string, sel layout.SelectionResult, p layout.PreferenceRecord, previousHash string) (layout.LayoutSchema, bool, error) {
	start := time.Now()

	components := make([]layout.LayoutComponent, 0, len(sel.Selected)+len(sel.Exploration))
	for _, c := range sel.Selected {
		components = append(components, layoutComponent(c, defaultProps(c.Type)))
	}
	for _, c := range sel.Exploration {
		props := defaultProps(c.Type)
		props[PropIsExploration] = true
		props[PropModuleLoud] = true
		components = append(components, layoutComponent(c, props))
	}
	tokens := Tokens(p)

	hash, err := LayoutHash(components, tokens)
	if err != nil {
		return layout.LayoutSchema{}, false, err
	}
	changed := previousHash != hash
	if !changed {
		a.log.Debug("layout unchanged", "session_id", sessionID, "layout_hash", hash[:8])
	}

	return layout.LayoutSchema{
		LayoutID:   "layout_" + uuid.NewString(),
		LayoutHash: hash,
		SessionID:  sessionID,
		Timestamp:  a.Now().UTC(),
		Components: components,
		Tokens:     tokens,
		Metadata: map[string]any{
			"exploration_count": len(sel.Exploration),
			"total_components":  len(components),
			"assembly_time_ms":  float64(time.Since(start).Microseconds()) / 1000,
			"changed":           changed,
		},
	}, changed, nil
}

func layoutComponent(c layout.ComponentCandidate, props map[string]any) layout.LayoutComponent {
	return layout.LayoutComponent{
		ID:      c.ID,
		Type:    c.Type,
		Variant: c.Variant,
		Genre:   c.Genre,
		Props:   props,
	}
}

// Tokens maps visual preferences onto CSS-ready design tokens.
func Tokens(p layout.PreferenceRecord) layout.LayoutTokens {
	return layout.LayoutTokens{
		Theme:        lookupOr(themeTokens, p.Visual.ColorScheme, "light"),
		BorderRadius: lookupOr(borderRadiusTokens, p.Visual.CornerRadius, "8px"),
		FontWeight:   lookupOr(fontWeightTokens, p.Visual.TypographyWeight, "400"),
		Density:      p.Visual.Density,
		AccentColor:  DefaultAccentColor,
	}
}

func lookupOr(m map[string]string, k, def string) string {
	if v, ok := m[k]; ok {
		return v
	}
	return def
}

// LayoutHash is the hex SHA-256 of {components, tokens} serialized with
// sorted keys at every level. Ids, timestamps and metadata are excluded.
func LayoutHash(components []layout.LayoutComponent, tokens layout.LayoutTokens) (string, error) {
	raw, err := canonicalJSON(map[string]any{
		"components": components,
		"tokens":     tokens,
	})
	if err != nil {
		return "", fmt.Errorf("layout hash: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON round-trips v through a generic value so struct fields are
// emitted in sorted key order like map keys.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

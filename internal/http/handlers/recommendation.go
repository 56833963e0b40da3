package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/http/response"
	pkgerrors "github.com/yungbote/storefront-layout/internal/pkg/errors"
	"github.com/yungbote/storefront-layout/internal/vector"
)

const (
	defaultRecommendTopK = 5
	maxRecommendTopK     = 36
)

type RecommendationHandler struct {
	store *vector.Store
}

func NewRecommendationHandler(store *vector.Store) *RecommendationHandler {
	return &RecommendationHandler{store: store}
}

type recommendRequest struct {
	Preferences layout.PreferenceRecord `json:"preferences"`
	TopK        int                     `json:"top_k"`
}

type recommendResponse struct {
	Best    vector.Recommendation   `json:"best"`
	Matches []vector.Recommendation `json:"matches"`
}

// POST /api/recommendations
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, fmt.Errorf("decode body: %v: %w", err, pkgerrors.ErrInvalidArgument))
		return
	}
	if err := req.Preferences.Validate(); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = defaultRecommendTopK
	}
	if topK > maxRecommendTopK {
		topK = maxRecommendTopK
	}

	best, ranked, ok := vector.Recommend(h.store, req.Preferences, topK)
	if !ok {
		response.RespondError(c, http.StatusServiceUnavailable, "unavailable", fmt.Errorf("module catalog is empty"))
		return
	}
	response.RespondOK(c, recommendResponse{Best: best, Matches: ranked})
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/http/response"
	"github.com/yungbote/storefront-layout/internal/pipeline"
	pkgerrors "github.com/yungbote/storefront-layout/internal/pkg/errors"
	"github.com/yungbote/storefront-layout/internal/platform/ctxutil"
	"github.com/yungbote/storefront-layout/internal/platform/logger"
)

// LayoutService is the part of the pipeline the HTTP layer drives.
type LayoutService interface {
	Process(ctx context.Context, sessionID string, p layout.PreferenceRecord, sctx layout.SessionContext) (pipeline.Result, error)
	CachedLayout(ctx context.Context, sessionID string) (layout.LayoutSchema, error)
}

type LayoutHandler struct {
	log *logger.Logger
	svc LayoutService
}

func NewLayoutHandler(log *logger.Logger, svc LayoutService) *LayoutHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &LayoutHandler{log: log.With("handler", "LayoutHandler"), svc: svc}
}

type preferencesRequest struct {
	Preferences layout.PreferenceRecord `json:"preferences"`
	Context     struct {
		PageType   string `json:"page_type"`
		DeviceType string `json:"device_type"`
	} `json:"context"`
}

type preferencesResponse struct {
	Status       string                 `json:"status"`
	Changed      bool                   `json:"changed"`
	Published    bool                   `json:"published"`
	SuggestedID  *int                   `json:"suggested_id,omitempty"`
	Layout       *layout.LayoutSchema   `json:"layout,omitempty"`
	Degradations []pipeline.Degradation `json:"degradations,omitempty"`
}

// POST /api/sessions/:session_id/preferences
func (h *LayoutHandler) SubmitPreferences(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("missing session_id"))
		return
	}
	ctxutil.SetSessionID(c.Request.Context(), sessionID)

	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, fmt.Errorf("decode body: %v: %w", err, pkgerrors.ErrInvalidArgument))
		return
	}
	if req.Preferences.Version == "" {
		req.Preferences.Version = layout.PreferenceVersion
	}
	if err := req.Preferences.Validate(); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	sctx := layout.NewSessionContext(sessionID, req.Context.PageType, req.Context.DeviceType, time.Now())
	res, err := h.svc.Process(c.Request.Context(), sessionID, req.Preferences, sctx)
	if err != nil {
		h.log.Error("layout pipeline failed", "session_id", sessionID, "state", res.State, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	if res.State == pipeline.StateSkipped {
		c.JSON(http.StatusAccepted, preferencesResponse{Status: "skipped"})
		return
	}
	response.RespondOK(c, preferencesResponse{
		Status:       "done",
		Changed:      res.Changed,
		Published:    res.Published,
		SuggestedID:  res.SuggestedID,
		Layout:       res.Layout,
		Degradations: res.Degradations,
	})
}

// GET /api/sessions/:session_id/layout
func (h *LayoutHandler) GetLayout(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	ctxutil.SetSessionID(c.Request.Context(), sessionID)
	schema, err := h.svc.CachedLayout(c.Request.Context(), sessionID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, schema)
}

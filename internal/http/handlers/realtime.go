package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/http/response"
	"github.com/yungbote/storefront-layout/internal/platform/ctxutil"
	"github.com/yungbote/storefront-layout/internal/platform/logger"
	"github.com/yungbote/storefront-layout/internal/realtime/bus"
)

var errNoSubscriber = errors.New("layout streaming not configured")

// RealtimeHandler streams a session's layout updates as server-sent events.
type RealtimeHandler struct {
	log *logger.Logger
	sub bus.Subscriber
}

func NewRealtimeHandler(log *logger.Logger, sub bus.Subscriber) *RealtimeHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), sub: sub}
}

// GET /api/sessions/:session_id/stream
func (h *RealtimeHandler) Stream(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	ctxutil.SetSessionID(c.Request.Context(), sessionID)
	if h.sub == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "unavailable", errNoSubscriber)
		return
	}

	ctx := c.Request.Context()
	updates := make(chan layout.LayoutUpdate, 8)
	err := h.sub.Subscribe(ctx, sessionID, func(u layout.LayoutUpdate) {
		select {
		case updates <- u:
		default:
			// slow reader; it will pick up the next update or refetch
			h.log.Warn("dropping layout update for slow stream", "session_id", sessionID)
		}
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	h.log.Debug("layout stream open", "session_id", sessionID)
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case u := <-updates:
			c.SSEvent("layout", u)
			return true
		}
	})
	h.log.Debug("layout stream closed", "session_id", sessionID)
}

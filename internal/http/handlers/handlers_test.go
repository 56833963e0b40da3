package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-layout/internal/data/kv"
	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/pipeline"
	"github.com/yungbote/storefront-layout/internal/realtime/bus"
	"github.com/yungbote/storefront-layout/internal/vector"
)

type fakeLayoutService struct {
	res    pipeline.Result
	err    error
	cached layout.LayoutSchema
	calls  int
	gotCtx layout.SessionContext
}

func (f *fakeLayoutService) Process(_ context.Context, _ string, _ layout.PreferenceRecord, sctx layout.SessionContext) (pipeline.Result, error) {
	f.calls++
	f.gotCtx = sctx
	return f.res, f.err
}

func (f *fakeLayoutService) CachedLayout(_ context.Context, sessionID string) (layout.LayoutSchema, error) {
	if f.cached.LayoutID == "" {
		return layout.LayoutSchema{}, fmt.Errorf("layout for %s: %w", sessionID, kv.ErrNotFound)
	}
	return f.cached, nil
}

func newTestRouter(svc LayoutService, store *vector.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	lh := NewLayoutHandler(nil, svc)
	r.POST("/api/sessions/:session_id/preferences", lh.SubmitPreferences)
	r.GET("/api/sessions/:session_id/layout", lh.GetLayout)
	r.POST("/api/recommendations", NewRecommendationHandler(store).Recommend)
	r.GET("/healthz", NewHealthHandler(nil).HealthCheck)
	return r
}

func preferencesBody(t *testing.T, p layout.PreferenceRecord, device string) *strings.Reader {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"preferences": p,
		"context":     map[string]string{"page_type": "product", "device_type": device},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return strings.NewReader(string(raw))
}

func do(r http.Handler, method, path string, body *strings.Reader) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := do(newTestRouter(&fakeLayoutService{}, nil), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}
}

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var kvErr error
	h := NewHealthHandler(map[string]ReadyCheck{
		"kv": func(context.Context) error { return kvErr },
	})
	r := gin.New()
	r.GET("/readyz", h.Ready)

	rec := do(r, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"kv":"ok"`) {
		t.Fatalf("ready: %d %s", rec.Code, rec.Body.String())
	}

	kvErr = errors.New("dial tcp: refused")
	rec = do(r, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusServiceUnavailable || strings.Contains(rec.Body.String(), "refused") {
		t.Fatalf("not ready: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitPreferencesDone(t *testing.T) {
	id := 7
	svc := &fakeLayoutService{res: pipeline.Result{
		State:       pipeline.StateDone,
		Changed:     true,
		Published:   true,
		SuggestedID: &id,
		Layout:      &layout.LayoutSchema{LayoutID: "layout_x", LayoutHash: "abc"},
	}}
	rec := do(newTestRouter(svc, nil), http.MethodPost, "/api/sessions/s1/preferences", preferencesBody(t, layout.DefaultPreferenceRecord(), "mobile"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var got preferencesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "done" || !got.Changed || got.SuggestedID == nil || *got.SuggestedID != 7 || got.Layout.LayoutHash != "abc" {
		t.Fatalf("body: got=%+v", got)
	}
	if svc.gotCtx.DeviceType != layout.DeviceMobile || svc.gotCtx.PageType != "product" || svc.gotCtx.SessionID != "s1" {
		t.Fatalf("session context: got=%+v", svc.gotCtx)
	}
}

func TestSubmitPreferencesSkipped(t *testing.T) {
	svc := &fakeLayoutService{res: pipeline.Result{State: pipeline.StateSkipped}}
	rec := do(newTestRouter(svc, nil), http.MethodPost, "/api/sessions/s1/preferences", preferencesBody(t, layout.DefaultPreferenceRecord(), ""))
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), `"status":"skipped"`) {
		t.Fatalf("skipped: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitPreferencesRejectsInvalidEnums(t *testing.T) {
	svc := &fakeLayoutService{}
	p := layout.DefaultPreferenceRecord()
	p.Visual.Density = "extreme"
	rec := do(newTestRouter(svc, nil), http.MethodPost, "/api/sessions/s1/preferences", preferencesBody(t, p, ""))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid_argument") {
		t.Fatalf("invalid enum: %d %s", rec.Code, rec.Body.String())
	}
	if svc.calls != 0 {
		t.Fatalf("pipeline should not run on invalid input")
	}

	rec = do(newTestRouter(svc, nil), http.MethodPost, "/api/sessions/s1/preferences", strings.NewReader("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: want=400 got=%d", rec.Code)
	}
}

func TestSubmitPreferencesHidesInternalErrors(t *testing.T) {
	svc := &fakeLayoutService{
		res: pipeline.Result{State: pipeline.StateStateWrite},
		err: errors.New("write session state: dial tcp 10.0.0.1:6379: refused"),
	}
	rec := do(newTestRouter(svc, nil), http.MethodPost, "/api/sessions/s1/preferences", preferencesBody(t, layout.DefaultPreferenceRecord(), ""))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.1") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestGetLayout(t *testing.T) {
	svc := &fakeLayoutService{}
	rec := do(newTestRouter(svc, nil), http.MethodGet, "/api/sessions/s1/layout", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing layout: want=404 got=%d", rec.Code)
	}

	svc.cached = layout.LayoutSchema{LayoutID: "layout_1", LayoutHash: "h1", SessionID: "s1"}
	rec = do(newTestRouter(svc, nil), http.MethodGet, "/api/sessions/s1/layout", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"layout_hash":"h1"`) {
		t.Fatalf("cached layout: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRecommend(t *testing.T) {
	r := newTestRouter(&fakeLayoutService{}, vector.NewCatalogStore())
	raw, _ := json.Marshal(map[string]any{"preferences": layout.DefaultPreferenceRecord(), "top_k": 4})
	rec := do(r, http.MethodPost, "/api/recommendations", strings.NewReader(string(raw)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var got recommendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Matches) != 4 || got.Matches[0] != got.Best {
		t.Fatalf("matches: got=%+v", got)
	}
	for i := 1; i < len(got.Matches); i++ {
		if got.Matches[i].Score > got.Matches[i-1].Score {
			t.Fatalf("matches not descending at %d", i)
		}
	}

	empty := newTestRouter(&fakeLayoutService{}, vector.NewStore())
	rec = do(empty, http.MethodPost, "/api/recommendations", strings.NewReader(string(raw)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("empty store: want=503 got=%d", rec.Code)
	}
}

func TestStreamDeliversPublishedUpdates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rb := bus.NewRecorder()
	r := gin.New()
	r.GET("/api/sessions/:session_id/stream", NewRealtimeHandler(nil, rb).Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sessions/s1/stream", nil)

	respCh := make(chan *http.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	for rb.Subscribers("s1") == 0 {
		select {
		case err := <-errCh:
			t.Fatalf("stream request: %v", err)
		case <-ctx.Done():
			t.Fatalf("stream never subscribed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	_ = rb.Publish(context.Background(), "s1", layout.LayoutUpdate{LayoutHash: "fresh"})

	var resp *http.Response
	select {
	case resp = <-respCh:
	case err := <-errCh:
		t.Fatalf("stream request: %v", err)
	case <-ctx.Done():
		t.Fatalf("no response headers")
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	var sawEvent bool
	for sc.Scan() {
		line := sc.Text()
		if line == "event:layout" {
			sawEvent = true
		}
		if sawEvent && strings.HasPrefix(line, "data:") {
			if !strings.Contains(line, `"layout_hash":"fresh"`) {
				t.Fatalf("event data: %s", line)
			}
			return
		}
	}
	t.Fatalf("no layout event received: %v", sc.Err())
}

func TestStreamWithoutSubscriber(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/sessions/:session_id/stream", NewRealtimeHandler(nil, nil).Stream)
	rec := do(r, http.MethodGet, "/api/sessions/s1/stream", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", rec.Code)
	}
}

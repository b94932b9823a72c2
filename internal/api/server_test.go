package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsrelay/internal/logger"
	"github.com/deusflow/newsrelay/internal/metrics"
	"github.com/deusflow/newsrelay/internal/news"
	"github.com/deusflow/newsrelay/internal/relay"
)

type call struct {
	cycle      relay.Cycle
	categories []news.Category
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   []call
	errs    map[relay.Cycle]error
	ctxErrs []error
}

func (f *fakeRunner) Run(ctx context.Context, cycle relay.Cycle, categories ...news.Category) (*relay.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{cycle: cycle, categories: categories})
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if err := f.errs[cycle]; err != nil {
		return nil, err
	}
	return &relay.Report{RunID: "run-" + string(cycle), Cycle: cycle}, nil
}

func newTestServer(runner *fakeRunner, key string) *gin.Engine {
	return NewServer(NewHandler(context.Background(), runner, metrics.New(), logger.Discard()), key, logger.Discard())
}

func do(t *testing.T, r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(&fakeRunner{}, ""), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestMetrics(t *testing.T) {
	w := do(t, newTestServer(&fakeRunner{}, ""), http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Contains(t, stats, "items_delivered")
}

func TestTriggerWithoutBody(t *testing.T) {
	runner := &fakeRunner{}
	w := do(t, newTestServer(runner, ""), http.MethodPost, "/api/trigger/rss", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TriggerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Reports, 1)
	assert.Equal(t, "run-rss", resp.Reports[0].RunID)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, relay.CycleRSS, runner.calls[0].cycle)
	assert.Empty(t, runner.calls[0].categories)
}

func TestTriggerWithCategory(t *testing.T) {
	runner := &fakeRunner{}
	w := do(t, newTestServer(runner, ""), http.MethodPost, "/api/trigger/other", `{"category":"tech_news"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, relay.CycleOther, runner.calls[0].cycle)
	assert.Equal(t, []news.Category{news.TechNews}, runner.calls[0].categories)
}

func TestTriggerAllRunsBothCycles(t *testing.T) {
	runner := &fakeRunner{}
	w := do(t, newTestServer(runner, ""), http.MethodPost, "/api/trigger/all", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, runner.calls, 2)
	assert.Equal(t, relay.CycleRSS, runner.calls[0].cycle)
	assert.Equal(t, relay.CycleOther, runner.calls[1].cycle)
}

func TestTriggerUnknownCategory(t *testing.T) {
	runner := &fakeRunner{}
	w := do(t, newTestServer(runner, ""), http.MethodPost, "/api/trigger/rss", `{"category":"sports"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, runner.calls)
}

func TestTriggerMalformedBody(t *testing.T) {
	w := do(t, newTestServer(&fakeRunner{}, ""), http.MethodPost, "/api/trigger/rss", `{"category":`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"busy", relay.ErrCycleBusy, http.StatusConflict},
		{"failure", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{errs: map[relay.Cycle]error{relay.CycleRSS: tt.err}}
			w := do(t, newTestServer(runner, ""), http.MethodPost, "/api/trigger/all", "", nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Len(t, runner.calls, 1)
		})
	}
}

func TestTriggerRequiresKeyWhenConfigured(t *testing.T) {
	runner := &fakeRunner{}
	srv := newTestServer(runner, "secret")

	w := do(t, srv, http.MethodPost, "/api/trigger/rss", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, srv, http.MethodPost, "/api/trigger/rss", "", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodPost, "/api/trigger/rss", "", map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, runner.calls, 2)
}

func TestTriggerUsesServerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{}
	srv := NewServer(NewHandler(ctx, runner, metrics.New(), logger.Discard()), "", logger.Discard())

	w := do(t, srv, http.MethodPost, "/api/trigger/rss", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	cancel()
	w = do(t, srv, http.MethodPost, "/api/trigger/rss", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, runner.ctxErrs, 2)
	assert.NoError(t, runner.ctxErrs[0])
	assert.ErrorIs(t, runner.ctxErrs[1], context.Canceled)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/joshinii/ai-governance/internal/api"
	"github.com/joshinii/ai-governance/internal/engine"
	"github.com/joshinii/ai-governance/internal/history"
	"github.com/joshinii/ai-governance/internal/llm"
	"github.com/joshinii/ai-governance/internal/metrics"
	"github.com/joshinii/ai-governance/internal/prompt"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicBackend struct{}

func (panicBackend) Name() string { return "broken" }

func (panicBackend) Generate(context.Context, prompt.GenerationRequest) ([]prompt.Variant, error) {
	panic("boom")
}

type testServer struct {
	router *gin.Engine
	mr     *miniredis.Miniredis
}

func newTestServer(t *testing.T, opts ...engine.Option) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	m := metrics.New()
	eng := engine.New(engine.Config{}, append([]engine.Option{engine.WithMetrics(m)}, opts...)...)
	rec := history.NewRecorder(rdb, nil, m, history.Config{})
	h := NewGatewayHandler(eng, rec, llm.NewProfiler(rdb), m, rdb)

	r := gin.New()
	h.Register(r)
	return &testServer{router: r, mr: mr}
}

func (s *testServer) do(method, target string, body any, user string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandlePromptVariants(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/prompt-variants", api.VariantRequest{OriginalPrompt: "write code", Context: "code"}, "jane@corp.com")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[engine.Result](t, w)
	assert.Equal(t, "write code", res.OriginalPrompt)
	assert.Equal(t, 30, res.OriginalQuality.Score)
	assert.Len(t, res.Variants, 3)
	assert.Equal(t, prompt.IndustryCode, res.Metadata.IndustryDetected)
	assert.False(t, res.Metadata.CacheHit)

	w = s.do(http.MethodPost, "/api/v1/prompt-variants", api.VariantRequest{OriginalPrompt: "write code", Context: "code"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[engine.Result](t, w).Metadata.CacheHit)
}

func TestHandlePromptVariants_QueryParameters(t *testing.T) {
	s := newTestServer(t)
	q := url.Values{"original_prompt": {"summarize this report"}, "context": {"business"}}

	w := s.do(http.MethodPost, "/api/v1/prompt-variants?"+q.Encode(), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[engine.Result](t, w)
	assert.Equal(t, prompt.IndustryBusiness, res.Metadata.IndustryDetected)
	assert.Equal(t, prompt.TypeSummarization, res.Metadata.PromptType)
}

func TestHandlePromptVariants_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		opts     []engine.Option
		wantCode int
		wantErr  string
	}{
		{"empty", api.VariantRequest{}, nil, http.StatusBadRequest, "Prompt cannot be empty"},
		{"too short", api.VariantRequest{OriginalPrompt: "ab"}, nil, http.StatusBadRequest, "Prompt is too short (minimum 3 characters)"},
		{"too long", api.VariantRequest{OriginalPrompt: strings.Repeat("x", 10001)}, nil, http.StatusBadRequest, "maximum length (10,000 characters)"},
		{"malformed", "not an object", nil, http.StatusBadRequest, "Invalid request"},
		{"generation failure", api.VariantRequest{OriginalPrompt: "write code"}, []engine.Option{engine.WithBackend(panicBackend{})}, http.StatusInternalServerError, "failed to generate prompt variants"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.opts...)
			w := s.do(http.MethodPost, "/api/v1/prompt-variants", tt.body, "")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, decode[api.ErrorResponse](t, w).Error, tt.wantErr)
			assert.NotContains(t, w.Body.String(), "boom")
		})
	}
}

func TestHandleCacheStats(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/v1/prompt-variants", api.VariantRequest{OriginalPrompt: "write code"}, "")

	w := s.do(http.MethodGet, "/api/v1/prompt-variants/cache-stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, 1.0, stats["size"])
	assert.Equal(t, "memory", stats["type"])
}

func historyBody(user string) api.HistoryRequest {
	selected := 2
	original, final := 30.0, 65.0
	return api.HistoryRequest{
		UserEmail:       user,
		OriginalPrompt:  "write code",
		FinalPrompt:     "Write Go code that parses CSV",
		Tool:            "chatgpt",
		VariantSelected: &selected,
		OriginalScore:   &original,
		FinalScore:      &final,
	}
}

func TestHandleCreateHistory(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/prompt-history", historyBody("jane@corp.com"), "Jane@Corp.com")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[api.PromptRecord](t, w)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 2, rec.VariantSelected)
	require.NotNil(t, rec.ImprovementDelta)
	assert.Equal(t, 35.0, *rec.ImprovementDelta)

	w = s.do(http.MethodPost, "/api/v1/prompt-history", historyBody("jane@corp.com"), "mallory@corp.com")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/prompt-history", historyBody("jane@corp.com"), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	missing := historyBody("jane@corp.com")
	missing.Tool = ""
	w = s.do(http.MethodPost, "/api/v1/prompt-history", missing, "jane@corp.com")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.mr.Close()
	w = s.do(http.MethodPost, "/api/v1/prompt-history", historyBody("jane@corp.com"), "jane@corp.com")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to record prompt history", decode[api.ErrorResponse](t, w).Error)
}

func TestHandleReadHistory(t *testing.T) {
	s := newTestServer(t)
	const user = "jane@corp.com"

	created := decode[api.PromptRecord](t, s.do(http.MethodPost, "/api/v1/prompt-history", historyBody(user), user))
	other := historyBody(user)
	other.Tool = "claude"
	other.VariantSelected = nil
	s.do(http.MethodPost, "/api/v1/prompt-history", other, user)

	w := s.do(http.MethodGet, "/api/v1/prompt-history?tool=chatgpt", nil, user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[api.HistoryList](t, w)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, created.ID, list.Items[0].ID)

	w = s.do(http.MethodGet, "/api/v1/prompt-history/stats", nil, user)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[api.HistoryStats](t, w)
	assert.Equal(t, 2, stats.TotalPrompts)
	assert.InDelta(t, 0.5, stats.VariantAdoptionRate, 1e-9)

	w = s.do(http.MethodGet, "/api/v1/prompt-history/"+created.ID, nil, user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.FinalPrompt, decode[api.PromptRecord](t, w).FinalPrompt)

	w = s.do(http.MethodGet, "/api/v1/prompt-history/"+created.ID, nil, "mallory@corp.com")
	assert.Equal(t, http.StatusNotFound, w.Code, "other users' records are invisible")

	w = s.do(http.MethodGet, "/api/v1/prompt-history?user_email=jane@corp.com", nil, "mallory@corp.com")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/v1/prompt-history?page_size=500", nil, user)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/prompt-history", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHistoryUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewGatewayHandler(engine.New(engine.Config{}), nil, nil, nil, nil)
	r := gin.New()
	h.Register(r)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prompt-history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "rule_based", body["backend"])
	assert.Equal(t, "ok", body["redis"])
	assert.Contains(t, body, "build")
	assert.Contains(t, body, "backend_profile")

	s.mr.Close()
	w = s.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[map[string]any](t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unavailable", body["redis"])
}

func TestHandleMetrics(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/v1/prompt-variants", api.VariantRequest{OriginalPrompt: "write code"}, "")

	w := s.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `prompt_gateway_variant_requests_total{backend="rule_based",outcome="generated"} 1`)
}

// In file: cmd/gateway/handler.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joshinii/ai-governance/internal/api"
	"github.com/joshinii/ai-governance/internal/engine"
	"github.com/joshinii/ai-governance/internal/history"
	"github.com/joshinii/ai-governance/internal/llm"
	"github.com/joshinii/ai-governance/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// userHeader carries the caller identity. Authentication happens upstream.
const userHeader = "X-User-Email"

// =================================================================================
// Gateway Handler
// =================================================================================
// Thin HTTP layer over the engine and the history recorder. Handlers bind and
// check input, map typed errors to status codes and never echo internal causes.
// =================================================================================

type GatewayHandler struct {
	engine   *engine.Engine
	history  *history.Recorder
	profiler *llm.Profiler
	metrics  *metrics.Metrics
	rdb      *redis.Client
}

// NewGatewayHandler wires the handler. history, profiler and rdb may be nil;
// the matching routes then report the feature as unavailable.
func NewGatewayHandler(eng *engine.Engine, rec *history.Recorder, profiler *llm.Profiler, m *metrics.Metrics, rdb *redis.Client) *GatewayHandler {
	return &GatewayHandler{engine: eng, history: rec, profiler: profiler, metrics: m, rdb: rdb}
}

// Register mounts every route on r.
func (h *GatewayHandler) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/prompt-variants", h.HandlePromptVariants)
		v1.GET("/prompt-variants/cache-stats", h.HandleCacheStats)

		v1.POST("/prompt-history", h.HandleCreateHistory)
		v1.GET("/prompt-history", h.HandleListHistory)
		v1.GET("/prompt-history/stats", h.HandleHistoryStats)
		v1.GET("/prompt-history/:id", h.HandleGetHistory)
	}
	r.GET("/health", h.HandleHealth)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}

func (h *GatewayHandler) HandlePromptVariants(c *gin.Context) {
	var req api.VariantRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request: " + err.Error()})
			return
		}
	}

	start := time.Now()
	res, err := h.engine.GenerateVariants(c.Request.Context(), engine.Request{
		Prompt:  req.OriginalPrompt,
		Context: req.Context,
		UserID:  c.GetHeader(userHeader),
	})
	switch {
	case errors.Is(err, engine.ErrValidation):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: engine.ErrGeneration.Error()})
		return
	}

	log.Printf("🔍 Variants ready (request=%s, backend=%s, cache_hit=%v, degraded=%v, latency=%s)",
		res.Metadata.RequestID, res.Metadata.Backend, res.Metadata.CacheHit, res.Metadata.Degraded, time.Since(start).Round(time.Millisecond))
	c.JSON(http.StatusOK, res)
}

func (h *GatewayHandler) HandleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.CacheStats(c.Request.Context()))
}

// requireHistory answers 503 when no recorder is configured.
func (h *GatewayHandler) requireHistory(c *gin.Context) bool {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "prompt history is not configured"})
		return false
	}
	return true
}

func sameUser(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (h *GatewayHandler) HandleCreateHistory(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	var req api.HistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}
	if !sameUser(req.UserEmail, c.GetHeader(userHeader)) {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "You can only create history for yourself"})
		return
	}

	rec, err := h.history.Record(c.Request.Context(), req)
	if err != nil {
		log.Printf("❌ Failed to record prompt history: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to record prompt history"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// historyQuery is shared by the list and stats endpoints.
type historyQuery struct {
	UserEmail string `form:"user_email"`
	Tool      string `form:"tool"`
	HadPII    *bool  `form:"had_pii"`
	Days      int    `form:"days" binding:"omitempty,min=1,max=365"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// bindHistoryQuery resolves whose history is being read. Only the caller's own
// history is visible.
func (h *GatewayHandler) bindHistoryQuery(c *gin.Context, forbidden string) (historyQuery, string, bool) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return q, "", false
	}
	user := c.GetHeader(userHeader)
	if strings.TrimSpace(user) == "" {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing " + userHeader + " header"})
		return q, "", false
	}
	if q.UserEmail != "" && !sameUser(q.UserEmail, user) {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: forbidden})
		return q, "", false
	}
	return q, user, true
}

func (h *GatewayHandler) HandleListHistory(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	q, user, ok := h.bindHistoryQuery(c, "You can only view your own history")
	if !ok {
		return
	}
	list, err := h.history.List(c.Request.Context(), user, history.Filter{
		Tool:     q.Tool,
		HadPII:   q.HadPII,
		Days:     q.Days,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		log.Printf("❌ Failed to list prompt history: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to read prompt history"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *GatewayHandler) HandleHistoryStats(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	q, user, ok := h.bindHistoryQuery(c, "You can only view your own stats")
	if !ok {
		return
	}
	stats, err := h.history.Stats(c.Request.Context(), user, q.Days)
	if err != nil {
		log.Printf("❌ Failed to compute prompt history stats: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to read prompt history"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *GatewayHandler) HandleGetHistory(c *gin.Context) {
	if !h.requireHistory(c) {
		return
	}
	user := c.GetHeader(userHeader)
	if strings.TrimSpace(user) == "" {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing " + userHeader + " header"})
		return
	}
	rec, err := h.history.Get(c.Request.Context(), user, c.Param("id"))
	switch {
	case errors.Is(err, history.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Prompt history not found"})
	case err != nil:
		log.Printf("❌ Failed to read prompt record: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to read prompt history"})
	default:
		c.JSON(http.StatusOK, rec)
	}
}

// HandleHealth reports build info, the cache and the backend profile. A
// failing Redis ping marks the gateway degraded but still answers 200.
func (h *GatewayHandler) HandleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	body := gin.H{
		"status":  "ok",
		"build":   GetBuildInfo(),
		"backend": h.engine.BackendName(),
		"cache":   h.engine.CacheStats(ctx),
	}
	if h.rdb != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.rdb.Ping(pingCtx).Err(); err != nil {
			body["status"] = "degraded"
			body["redis"] = "unavailable"
		} else {
			body["redis"] = "ok"
		}
	}
	if h.profiler != nil {
		if p, err := h.profiler.GetProfile(ctx, h.engine.BackendName()); err == nil {
			body["backend_profile"] = p
		}
	}
	c.JSON(http.StatusOK, body)
}

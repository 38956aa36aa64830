// In file: internal/history/recorder.go

// Package history stores what users were offered and what they finally sent,
// and forwards the final prompt to the memory service for later context
// lookups.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshinii/ai-governance/internal/api"
	"github.com/joshinii/ai-governance/internal/memory"
	"github.com/joshinii/ai-governance/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultMaxPerUser = 500
	DefaultTTL        = 90 * 24 * time.Hour
	DefaultDays       = 30
	DefaultPageSize   = 50
	MaxDays           = 365
	MaxPageSize       = 100

	topToolsLimit      = 5
	recentPromptsLimit = 10
)

var (
	// ErrNotFound is returned by Get when the user has no record with that id.
	ErrNotFound = errors.New("prompt history not found")
	// ErrUserRequired is returned when a call has no user to scope it to.
	ErrUserRequired = errors.New("user is required")
)

// MemoryWriter receives final prompts so the context provider can find them.
type MemoryWriter interface {
	Add(ctx context.Context, content, userID string, metadata map[string]any) error
}

// Config bounds per-user storage.
type Config struct {
	MaxPerUser int64
	TTL        time.Duration
}

// Filter narrows List. Zero values select the defaults.
type Filter struct {
	Tool     string
	HadPII   *bool
	Days     int
	Page     int
	PageSize int
}

func (f Filter) normalized() Filter {
	if f.Days < 1 || f.Days > MaxDays {
		f.Days = DefaultDays
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > MaxPageSize {
		f.PageSize = DefaultPageSize
	}
	return f
}

// Recorder keeps one capped Redis list per user, newest record first.
type Recorder struct {
	rdb     *redis.Client
	memory  MemoryWriter
	metrics *metrics.Metrics
	cfg     Config
	now     func() time.Time
}

// NewRecorder creates a recorder. mem may be nil, in which case nothing is
// forwarded.
func NewRecorder(rdb *redis.Client, mem MemoryWriter, m *metrics.Metrics, cfg Config) *Recorder {
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = DefaultMaxPerUser
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if mem == nil {
		mem = memory.None{}
	}
	return &Recorder{rdb: rdb, memory: mem, metrics: m, cfg: cfg, now: time.Now}
}

func userKey(user string) string {
	return fmt.Sprintf("history:%s", strings.ToLower(strings.TrimSpace(user)))
}

// NewRecord turns a request into a stored record: a fresh id and timestamp,
// the delta computed from the two scores and -1 when no variant was chosen or
// the index is outside the offered variants.
func NewRecord(req api.HistoryRequest, now time.Time) api.PromptRecord {
	rec := api.PromptRecord{
		ID:              uuid.NewString(),
		User:            req.UserEmail,
		OriginalPrompt:  req.OriginalPrompt,
		FinalPrompt:     req.FinalPrompt,
		Tool:            req.Tool,
		VariantsOffered: req.VariantsOffered,
		VariantSelected: api.NoVariantSelected,
		OriginalScore:   req.OriginalScore,
		FinalScore:      req.FinalScore,
		HadPII:          req.HadPII,
		PIITypes:        req.PIITypes,
		SessionID:       req.SessionID,
		Timestamp:       now.UTC(),
	}
	if sel := req.VariantSelected; sel != nil && *sel >= 0 {
		// An index past the offered variants cannot name a choice.
		if len(req.VariantsOffered) == 0 || *sel < len(req.VariantsOffered) {
			rec.VariantSelected = *sel
		}
	}
	rec.ComputeDelta()
	return rec
}

// Record stores the request and forwards the final prompt to memory. Memory
// failures are logged and never fail the call.
func (r *Recorder) Record(ctx context.Context, req api.HistoryRequest) (api.PromptRecord, error) {
	if strings.TrimSpace(req.UserEmail) == "" {
		return api.PromptRecord{}, ErrUserRequired
	}
	rec := NewRecord(req, r.now())
	if err := r.store(ctx, rec); err != nil {
		return api.PromptRecord{}, err
	}
	r.metrics.ObserveHistoryRecord(rec.VariantSelected >= 0)
	r.forward(ctx, rec)
	return rec, nil
}

// store appends rec to the user's list, trimming to the cap and refreshing the TTL.
func (r *Recorder) store(ctx context.Context, rec api.PromptRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal prompt record: %w", err)
	}
	key := userKey(rec.User)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, r.cfg.MaxPerUser-1)
		pipe.Expire(ctx, key, r.cfg.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store prompt record: %w", err)
	}
	log.Printf("✅ Stored prompt record %s (tool=%s, variant=%d)", rec.ID, rec.Tool, rec.VariantSelected)
	return nil
}

// forward skips records flagged as containing PII so that text never leaves
// for the memory service.
func (r *Recorder) forward(ctx context.Context, rec api.PromptRecord) {
	if rec.HadPII {
		return
	}
	metadata := map[string]any{
		"record_id":        rec.ID,
		"tool":             rec.Tool,
		"variant_selected": rec.VariantSelected,
	}
	if rec.OriginalScore != nil {
		metadata["original_score"] = *rec.OriginalScore
	}
	if rec.FinalScore != nil {
		metadata["final_score"] = *rec.FinalScore
	}
	if rec.SessionID != "" {
		metadata["session_id"] = rec.SessionID
	}
	if err := r.memory.Add(ctx, rec.FinalPrompt, rec.User, metadata); err != nil && !errors.Is(err, memory.ErrEmptyContent) {
		log.Printf("⚠️ Failed to forward prompt record %s to memory: %v", rec.ID, err)
	}
}

// load returns the user's records inside the look-back window, newest first.
// Entries that no longer decode are skipped.
func (r *Recorder) load(ctx context.Context, user string, days int) ([]api.PromptRecord, error) {
	if strings.TrimSpace(user) == "" {
		return nil, ErrUserRequired
	}
	raw, err := r.rdb.LRange(ctx, userKey(user), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt history: %w", err)
	}
	cutoff := r.now().Add(-time.Duration(days) * 24 * time.Hour)
	records := make([]api.PromptRecord, 0, len(raw))
	for _, item := range raw {
		var rec api.PromptRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			log.Printf("⚠️ Skipping corrupt prompt record for %s: %v", userKey(user), err)
			continue
		}
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// List returns one page of the user's records matching the filter.
func (r *Recorder) List(ctx context.Context, user string, f Filter) (api.HistoryList, error) {
	f = f.normalized()
	records, err := r.load(ctx, user, f.Days)
	if err != nil {
		return api.HistoryList{}, err
	}

	matched := records[:0]
	for _, rec := range records {
		if f.Tool != "" && rec.Tool != f.Tool {
			continue
		}
		if f.HadPII != nil && rec.HadPII != *f.HadPII {
			continue
		}
		matched = append(matched, rec)
	}

	out := api.HistoryList{Total: len(matched), Page: f.Page, PageSize: f.PageSize, Items: []api.PromptRecord{}}
	start := (f.Page - 1) * f.PageSize
	if start < len(matched) {
		end := min(start+f.PageSize, len(matched))
		out.Items = matched[start:end]
	}
	return out, nil
}

// Get returns one of the user's records by id.
func (r *Recorder) Get(ctx context.Context, user, id string) (api.PromptRecord, error) {
	records, err := r.load(ctx, user, MaxDays)
	if err != nil {
		return api.PromptRecord{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return api.PromptRecord{}, ErrNotFound
}

// Stats aggregates the user's records over the last days days.
func (r *Recorder) Stats(ctx context.Context, user string, days int) (api.HistoryStats, error) {
	if days < 1 || days > MaxDays {
		days = DefaultDays
	}
	records, err := r.load(ctx, user, days)
	if err != nil {
		return api.HistoryStats{}, err
	}

	stats := api.HistoryStats{TotalPrompts: len(records), TopTools: []api.ToolCount{}, RecentPrompts: []api.PromptRecord{}}
	var (
		deltaSum   float64
		deltaCount int
		chosen     int
		tools      = map[string]int{}
	)
	for _, rec := range records {
		if rec.ImprovementDelta != nil {
			deltaSum += *rec.ImprovementDelta
			deltaCount++
		}
		if rec.HadPII {
			stats.PIIIncidents++
		}
		if rec.VariantSelected >= 0 {
			chosen++
		}
		tools[rec.Tool]++
	}
	if deltaCount > 0 {
		stats.AvgImprovement = deltaSum / float64(deltaCount)
	}
	if len(records) > 0 {
		stats.VariantAdoptionRate = float64(chosen) / float64(len(records))
	}

	for tool, n := range tools {
		stats.TopTools = append(stats.TopTools, api.ToolCount{Tool: tool, Count: n})
	}
	sort.Slice(stats.TopTools, func(i, j int) bool {
		if stats.TopTools[i].Count != stats.TopTools[j].Count {
			return stats.TopTools[i].Count > stats.TopTools[j].Count
		}
		return stats.TopTools[i].Tool < stats.TopTools[j].Tool
	})
	if len(stats.TopTools) > topToolsLimit {
		stats.TopTools = stats.TopTools[:topToolsLimit]
	}

	stats.RecentPrompts = records[:min(recentPromptsLimit, len(records))]
	return stats, nil
}

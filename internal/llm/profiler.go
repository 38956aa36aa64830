// In file: internal/llm/profiler.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatusOnline   = "online"
	StatusDegraded = "degraded"

	// latencyAlpha weights the newest sample in the moving latency average.
	latencyAlpha = 0.1
)

// BackendProfile tracks reliability and latency of a generation backend.
type BackendProfile struct {
	Backend        string    `json:"backend"`
	AvgLatencyMS   int64     `json:"avg_latency_ms"`
	Status         string    `json:"status"`
	ErrorRate      float64   `json:"error_rate"`
	TotalSuccesses int64     `json:"total_successes"`
	TotalFailures  int64     `json:"total_failures"`
	TotalTokens    int64     `json:"total_tokens"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Profiler keeps one Redis hash per backend so every replica reports the same
// numbers.
type Profiler struct {
	rdb *redis.Client
}

func NewProfiler(rdb *redis.Client) *Profiler {
	return &Profiler{rdb: rdb}
}

func (p *Profiler) profileKey(backend string) string {
	return fmt.Sprintf("profile:%s", backend)
}

// GetProfile returns the stored profile, or a fresh online one if the backend
// has not been used yet.
func (p *Profiler) GetProfile(ctx context.Context, backend string) (*BackendProfile, error) {
	data, err := p.rdb.HGetAll(ctx, p.profileKey(backend)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read profile for %s: %w", backend, err)
	}

	profile := &BackendProfile{Backend: backend, Status: StatusOnline}
	if len(data) == 0 {
		return profile, nil
	}
	if s := data["status"]; s != "" {
		profile.Status = s
	}
	profile.AvgLatencyMS, _ = strconv.ParseInt(data["avg_latency_ms"], 10, 64)
	profile.ErrorRate, _ = strconv.ParseFloat(data["error_rate"], 64)
	profile.TotalSuccesses, _ = strconv.ParseInt(data["total_successes"], 10, 64)
	profile.TotalFailures, _ = strconv.ParseInt(data["total_failures"], 10, 64)
	profile.TotalTokens, _ = strconv.ParseInt(data["total_tokens"], 10, 64)
	profile.LastUpdated, _ = time.Parse(time.RFC3339Nano, data["last_updated"])
	return profile, nil
}

// RecordSuccess folds a successful call into the profile.
func (p *Profiler) RecordSuccess(ctx context.Context, backend string, latency time.Duration) {
	key := p.profileKey(backend)

	err := p.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "avg_latency_ms").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		newLatency := latency.Milliseconds()
		if current != "" {
			prev, _ := strconv.ParseInt(current, 10, 64)
			newLatency = int64(latencyAlpha*float64(latency.Milliseconds()) + (1.0-latencyAlpha)*float64(prev))
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", newLatency)
			return nil
		})
		return err
	}, key)
	if err != nil {
		log.Printf("Error updating latency for %s: %v", backend, err)
	}

	pipe := p.rdb.Pipeline()
	successes := pipe.HIncrBy(ctx, key, "total_successes", 1)
	failures := pipe.HGet(ctx, key, "total_failures")
	pipe.HSet(ctx, key, "status", StatusOnline, "last_updated", time.Now().UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("Error in success update pipeline for %s: %v", backend, err)
		return
	}

	totalFailures, _ := strconv.ParseInt(failures.Val(), 10, 64)
	p.storeErrorRate(ctx, key, totalFailures, successes.Val()+totalFailures)
}

// RecordFailure counts a failed call and marks the backend degraded.
func (p *Profiler) RecordFailure(ctx context.Context, backend string) {
	key := p.profileKey(backend)

	pipe := p.rdb.Pipeline()
	failures := pipe.HIncrBy(ctx, key, "total_failures", 1)
	successes := pipe.HGet(ctx, key, "total_successes")
	pipe.HSet(ctx, key, "status", StatusDegraded, "last_updated", time.Now().UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("Error in failure update pipeline for %s: %v", backend, err)
		return
	}

	totalSuccesses, _ := strconv.ParseInt(successes.Val(), 10, 64)
	p.storeErrorRate(ctx, key, failures.Val(), totalSuccesses+failures.Val())
}

// RecordTokens adds provider-reported token usage.
func (p *Profiler) RecordTokens(ctx context.Context, backend string, usage Usage) {
	if usage.TotalTokens <= 0 {
		return
	}
	if err := p.rdb.HIncrBy(ctx, p.profileKey(backend), "total_tokens", int64(usage.TotalTokens)).Err(); err != nil {
		log.Printf("Error recording token usage for %s: %v", backend, err)
	}
}

func (p *Profiler) storeErrorRate(ctx context.Context, key string, failures, total int64) {
	if total <= 0 {
		return
	}
	if err := p.rdb.HSet(ctx, key, "error_rate", float64(failures)/float64(total)).Err(); err != nil {
		log.Printf("Error storing error rate for %s: %v", key, err)
	}
}

// In file: internal/engine/engine.go

// Package engine orchestrates prompt variant generation: validation, cache,
// the long and short paths, context lookup and the degraded fallback.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshinii/ai-governance/internal/cache"
	"github.com/joshinii/ai-governance/internal/memory"
	"github.com/joshinii/ai-governance/internal/metrics"
	"github.com/joshinii/ai-governance/internal/prompt"
	"golang.org/x/sync/singleflight"
)

// Backend produces variants for a short prompt.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req prompt.GenerationRequest) ([]prompt.Variant, error)
}

// ContextProvider supplies prior history snippets for a user.
type ContextProvider interface {
	Search(ctx context.Context, query, userID string) ([]string, error)
}

// localBackend is implemented by backends whose errors are bugs rather than
// collaborator outages.
type localBackend interface {
	Local() bool
}

const (
	pathShort = "short"
	pathLong  = "long"
)

// Config bounds accepted prompts and collaborator calls.
type Config struct {
	MinPromptChars      int
	MaxPromptChars      int
	LongPromptThreshold int
	LongPromptFlagChars int
	ChunkSize           int
	BackendTimeout      time.Duration
	ContextTimeout      time.Duration
}

// DefaultConfig returns the limits used when config.yaml leaves them unset.
func DefaultConfig() Config {
	return Config{
		MinPromptChars:      3,
		MaxPromptChars:      10000,
		LongPromptThreshold: prompt.DefaultLongPromptThreshold,
		LongPromptFlagChars: 2000,
		ChunkSize:           prompt.DefaultChunkSize,
		BackendTimeout:      30 * time.Second,
		ContextTimeout:      5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinPromptChars <= 0 {
		c.MinPromptChars = d.MinPromptChars
	}
	if c.MaxPromptChars <= 0 {
		c.MaxPromptChars = d.MaxPromptChars
	}
	if c.LongPromptThreshold <= 0 {
		c.LongPromptThreshold = d.LongPromptThreshold
	}
	if c.LongPromptFlagChars <= 0 {
		c.LongPromptFlagChars = d.LongPromptFlagChars
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.BackendTimeout <= 0 {
		c.BackendTimeout = d.BackendTimeout
	}
	if c.ContextTimeout <= 0 {
		c.ContextTimeout = d.ContextTimeout
	}
	return c
}

// Request is one call to GenerateVariants.
type Request struct {
	Prompt  string
	Context string
	UserID  string
}

// Metadata describes how a result was produced.
type Metadata struct {
	RequestID        string            `json:"request_id"`
	GeneratedAt      time.Time         `json:"generated_at"`
	IndustryDetected prompt.Industry   `json:"industry_detected"`
	PromptType       prompt.PromptType `json:"prompt_type"`
	IsLongPrompt     bool              `json:"is_long_prompt"`
	WordCount        int               `json:"word_count"`
	CharCount        int               `json:"char_count"`
	CacheHit         bool              `json:"cache_hit"`
	Backend          string            `json:"backend"`
	Degraded         bool              `json:"degraded"`
	ContextSnippets  int               `json:"context_snippets"`
}

// Result is returned by GenerateVariants.
type Result struct {
	OriginalPrompt  string                 `json:"original_prompt"`
	Context         string                 `json:"context"`
	OriginalQuality prompt.QualityAnalysis `json:"original_quality"`
	Variants        []prompt.Variant       `json:"variants"`
	Metadata        Metadata               `json:"metadata"`
}

// generation is the shared outcome of one cache miss.
type generation struct {
	variants []prompt.Variant
	backend  string
	degraded bool
	snippets int
}

// Engine is safe for concurrent use.
type Engine struct {
	cfg       Config
	analyzer  *prompt.Analyzer
	generator *prompt.Generator
	long      *prompt.LongPromptGenerator
	backend   Backend
	provider  ContextProvider
	cache     cache.Cache
	metrics   *metrics.Metrics
	group     singleflight.Group
	now       func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

func WithAnalyzer(a *prompt.Analyzer) Option { return func(e *Engine) { e.analyzer = a } }

func WithBackend(b Backend) Option { return func(e *Engine) { e.backend = b } }

func WithContextProvider(p ContextProvider) Option { return func(e *Engine) { e.provider = p } }

func WithCache(c cache.Cache) Option { return func(e *Engine) { e.cache = c } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithClock overrides the time source used for metadata.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New builds an engine. Without options it uses the additive analyzer, the
// rule-based backend, no context provider and a default-capacity LRU cache.
func New(cfg Config, opts ...Option) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:       cfg,
		analyzer:  prompt.NewAnalyzer(nil),
		generator: prompt.NewGenerator(),
		long:      prompt.NewLongPromptGenerator(cfg.LongPromptThreshold, cfg.ChunkSize),
		provider:  memory.None{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.backend == nil {
		e.backend = e.generator
	}
	if e.cache == nil {
		mem, err := cache.NewMemory(cache.DefaultCapacity)
		if err != nil {
			log.Printf("⚠️ Falling back to a disabled variant cache: %v", err)
			e.cache = cache.Disabled{}
		} else {
			e.cache = mem
		}
	}
	return e
}

// BackendName reports the configured short-path backend.
func (e *Engine) BackendName() string { return e.backend.Name() }

// CacheStats is read-only introspection of the variant cache.
func (e *Engine) CacheStats(ctx context.Context) cache.Stats {
	return e.cache.Stats(ctx)
}

// Validate applies the length preconditions. Lengths are in characters.
func (e *Engine) Validate(text string) error {
	trimmed := prompt.CharCount(strings.TrimSpace(text))
	switch {
	case trimmed == 0:
		return &ValidationError{Reason: ReasonEmpty, Limit: e.cfg.MinPromptChars}
	case trimmed < e.cfg.MinPromptChars:
		return &ValidationError{Reason: ReasonTooShort, Limit: e.cfg.MinPromptChars}
	case prompt.CharCount(text) > e.cfg.MaxPromptChars:
		return &ValidationError{Reason: ReasonTooLong, Limit: e.cfg.MaxPromptChars}
	}
	return nil
}

// GenerateVariants is the single entry point of the engine.
func (e *Engine) GenerateVariants(ctx context.Context, req Request) (*Result, error) {
	if err := e.Validate(req.Prompt); err != nil {
		e.metrics.ObserveRequest(e.backend.Name(), metrics.OutcomeValidation)
		return nil, err
	}

	industry := prompt.ResolveIndustry(req.Prompt, req.Context)
	analysis := e.analyzer.Analyze(req.Prompt)
	analysis.Industry = industry
	e.metrics.ObserveQualityScore(analysis.Score)

	key := cache.Key(req.Prompt, industry)
	short := cache.ShortKey(key)

	if variants, ok := e.cache.Get(ctx, key); ok {
		e.metrics.ObserveCacheLookup(true)
		e.metrics.ObserveRequest(e.backendFor(req.Prompt), metrics.OutcomeCacheHit)
		log.Printf("✅ Variant cache HIT (%s)", short)
		return e.result(req, industry, analysis, generation{variants: variants, backend: e.backendFor(req.Prompt)}, true), nil
	}
	e.metrics.ObserveCacheLookup(false)
	log.Printf("⚠️ Variant cache MISS (%s)", short)

	// Identical concurrent misses share one computation. The user is part of
	// the flight key because context snippets are per user. The shared work
	// is detached from any one caller so a disconnect cannot degrade the
	// others; collaborator calls keep their own timeouts.
	flight := e.group.DoChan(key+"|"+req.UserID, func() (any, error) {
		work := context.WithoutCancel(ctx)
		gen, err := e.compute(work, req, industry, analysis)
		if err != nil {
			return nil, err
		}
		if !gen.degraded && gen.snippets == 0 {
			e.cache.Set(work, key, gen.variants)
		}
		return gen, nil
	})

	var v any
	select {
	case <-ctx.Done():
		e.metrics.ObserveRequest(e.backendFor(req.Prompt), metrics.OutcomeError)
		log.Printf("⚠️ Caller gave up waiting for variants (%s): %v", short, ctx.Err())
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			e.metrics.ObserveRequest(e.backendFor(req.Prompt), metrics.OutcomeError)
			log.Printf("❌ Variant generation failed (%s): %v", short, res.Err)
			return nil, res.Err
		}
		v = res.Val
	}

	gen := v.(generation)
	outcome := metrics.OutcomeGenerated
	if gen.degraded {
		outcome = metrics.OutcomeDegraded
	}
	e.metrics.ObserveRequest(gen.backend, outcome)
	return e.result(req, industry, analysis, gen, false), nil
}

// compute runs on a cache miss. A panic anywhere becomes a GenerationError.
func (e *Engine) compute(ctx context.Context, req Request, industry prompt.Industry, analysis prompt.QualityAnalysis) (gen generation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GenerationError{Err: fmt.Errorf("panic during variant generation: %v", r)}
		}
	}()

	start := time.Now()
	if e.long.IsLong(req.Prompt) {
		gen = generation{variants: e.long.Variants(req.Prompt, analysis), backend: e.generator.Name()}
		e.metrics.ObserveGeneration(gen.backend, pathLong, time.Since(start))
		return gen, nil
	}

	snippets := e.lookupContext(ctx, req)
	genReq := prompt.GenerationRequest{
		Prompt:   req.Prompt,
		TargetAI: req.Context,
		Industry: industry,
		Analysis: analysis,
		History:  snippets,
	}

	gen, err = e.generateShort(ctx, genReq)
	if err != nil {
		return generation{}, err
	}
	gen.snippets = len(snippets)
	e.metrics.ObserveGeneration(gen.backend, pathShort, time.Since(start))
	return gen, nil
}

func (e *Engine) generateShort(ctx context.Context, req prompt.GenerationRequest) (generation, error) {
	name := e.backend.Name()
	if l, ok := e.backend.(localBackend); ok && l.Local() {
		variants, err := e.backend.Generate(ctx, req)
		if err != nil {
			return generation{}, &GenerationError{Err: err}
		}
		return generation{variants: variants, backend: name}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.BackendTimeout)
	defer cancel()

	variants, err := e.backend.Generate(callCtx, req)
	if err != nil {
		log.Printf("⚠️ Backend %s unavailable, returning original prompt: %v", name, err)
		variants = nil
	}
	if len(variants) == 0 {
		return generation{
			variants: []prompt.Variant{prompt.FallbackVariant(req.Prompt, req.Analysis)},
			backend:  name,
			degraded: true,
		}, nil
	}

	variants, err = e.normalizeRemote(variants, req)
	if err != nil {
		return generation{}, err
	}
	return generation{variants: variants, backend: name}, nil
}

// normalizeRemote keeps the first three remote variants and fills missing
// slots with rule-based ones in strategy order.
func (e *Engine) normalizeRemote(variants []prompt.Variant, req prompt.GenerationRequest) ([]prompt.Variant, error) {
	if len(variants) >= prompt.VariantCount {
		return variants[:prompt.VariantCount], nil
	}
	local, err := e.generator.Variants(req.Prompt, req.Industry, req.Analysis)
	if err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("failed to top up remote variants: %w", err)}
	}
	out := append([]prompt.Variant(nil), variants...)
	return append(out, local[:prompt.VariantCount-len(variants)]...), nil
}

// lookupContext never fails the request; errors mean no snippets.
func (e *Engine) lookupContext(ctx context.Context, req Request) []string {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.ContextTimeout)
	defer cancel()

	snippets, err := e.provider.Search(ctx, req.Prompt, req.UserID)
	if err != nil {
		e.metrics.ObserveContextFailure()
		log.Printf("⚠️ Context lookup failed, continuing without history: %v", err)
		return nil
	}
	return snippets
}

// backendFor names the backend that serves text: long prompts always take
// the rule-based path.
func (e *Engine) backendFor(text string) string {
	if e.long.IsLong(text) {
		return e.generator.Name()
	}
	return e.backend.Name()
}

func (e *Engine) result(req Request, industry prompt.Industry, analysis prompt.QualityAnalysis, gen generation, hit bool) *Result {
	return &Result{
		OriginalPrompt:  req.Prompt,
		Context:         req.Context,
		OriginalQuality: analysis,
		Variants:        gen.variants,
		Metadata: Metadata{
			RequestID:        uuid.NewString(),
			GeneratedAt:      e.now().UTC(),
			IndustryDetected: industry,
			PromptType:       analysis.PromptType,
			IsLongPrompt:     analysis.CharCount > e.cfg.LongPromptFlagChars,
			WordCount:        analysis.WordCount,
			CharCount:        analysis.CharCount,
			CacheHit:         hit,
			Backend:          gen.backend,
			Degraded:         gen.degraded,
			ContextSnippets:  gen.snippets,
		},
	}
}

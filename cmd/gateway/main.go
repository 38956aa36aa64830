// In file: cmd/gateway/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshinii/ai-governance/internal/cache"
	"github.com/joshinii/ai-governance/internal/engine"
	"github.com/joshinii/ai-governance/internal/history"
	"github.com/joshinii/ai-governance/internal/llm"
	"github.com/joshinii/ai-governance/internal/memory"
	"github.com/joshinii/ai-governance/internal/metrics"
	"github.com/joshinii/ai-governance/internal/prompt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"
)

// main is the composition root: it loads configuration, builds every service,
// injects dependencies and starts the server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := GetBuildInfo()
	log.Printf("🚀 Starting Prompt Gateway | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	// 1. LOAD CONFIGURATION
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}
	log.Printf("✅ Configuration loaded (backend=%s, cache=%s, context=%s, scoring=%s).",
		cfg.Backend, cfg.Cache.Type, cfg.Provider, cfg.Policy)

	// 2. INITIALIZE SERVICES
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	m := metrics.New()
	variantCache, err := cache.New(cfg.Cache, rdb)
	if err != nil {
		log.Fatalf("❌ FATAL: Could not create variant cache: %v", err)
	}

	var profiler *llm.Profiler
	if rdb != nil {
		profiler = llm.NewProfiler(rdb)
	}

	backend, client, err := initializeBackend(ctx, cfg, profiler)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	if closer, ok := client.(io.Closer); ok {
		defer closer.Close()
	}

	provider, writer, err := initializeContextProvider(cfg)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	scorer, err := prompt.NewScorer(cfg.Policy)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	eng := engine.New(cfg.Engine,
		engine.WithAnalyzer(prompt.NewAnalyzer(scorer)),
		engine.WithBackend(backend),
		engine.WithContextProvider(provider),
		engine.WithCache(variantCache),
		engine.WithMetrics(m),
	)

	var recorder *history.Recorder
	if rdb != nil {
		recorder = history.NewRecorder(rdb, writer, m, cfg.History)
	}

	gatewayHandler := NewGatewayHandler(eng, recorder, profiler, m, rdb)
	log.Println("✅ All services initialized.")

	// 3. START BACKGROUND PROCESSES
	if client != nil && profiler != nil {
		go startHealthChecker(ctx, backend.Name(), client, profiler, cfg.HealthInterval)
	}

	// 4. SETUP AND RUN THE WEB SERVER
	gin.SetMode(os.Getenv("GIN_MODE"))
	router := gin.Default()
	gatewayHandler.Register(router)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: router}
	runServerWithGracefulShutdown(srv, cancel)
}

// connectRedis returns nil when Redis is unreachable and nothing strictly
// needs it. The redis cache type makes Redis mandatory.
func connectRedis(ctx context.Context, cfg *AppConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		if cfg.Cache.Type == cache.TypeRedis {
			return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Printf("⚠️ Redis unavailable at %s, running without history and backend profiles: %v", cfg.RedisAddr, err)
		return nil, nil
	}
	log.Printf("✅ Connected to Redis at %s.", cfg.RedisAddr)
	return rdb, nil
}

// initializeBackend builds the configured generation backend. The raw client
// is returned for health checks and is nil for the rule-based backend.
func initializeBackend(ctx context.Context, cfg *AppConfig, profiler *llm.Profiler) (engine.Backend, llm.LLMClient, error) {
	genConfig := &llm.GenerationConfig{Model: cfg.GeminiModel, JSONOutput: true}

	var client llm.LLMClient
	switch cfg.Backend {
	case BackendGemini:
		gc, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, genConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gemini backend: %w", err)
		}
		client = gc
	case BackendOpenAI:
		oc, err := llm.NewOpenAIClient(cfg.LLMServiceURL, cfg.LLMAPIKey, cfg.Engine.BackendTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create openai backend: %w", err)
		}
		client = oc
		genConfig.Model = cfg.LLMModel
	default:
		log.Println("✅ Using the rule-based generation backend.")
		return prompt.NewGenerator(), nil, nil
	}

	backend := llm.NewVariantBackend(cfg.Backend, client, genConfig).WithRateLimit(cfg.RateLimit, cfg.Burst)
	if profiler != nil {
		backend = backend.WithProfiler(profiler)
	}
	log.Printf("✅ Using the %s generation backend.", cfg.Backend)
	return backend, client, nil
}

// initializeContextProvider returns the search side used by the engine and the
// write side used by the history recorder.
func initializeContextProvider(cfg *AppConfig) (engine.ContextProvider, history.MemoryWriter, error) {
	if cfg.Provider != memory.ProviderSupermemory {
		return memory.None{}, memory.None{}, nil
	}
	sm, err := memory.NewSupermemory(cfg.SupermemoryURL, cfg.SupermemoryAPIKey, cfg.ContextLimit, cfg.Engine.ContextTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create supermemory provider: %w", err)
	}
	log.Printf("✅ Context provider supermemory at %s.", cfg.SupermemoryURL)
	return sm, sm, nil
}

// startHealthChecker probes the remote backend so its profile stays current
// even when traffic is quiet.
func startHealthChecker(ctx context.Context, name string, client llm.LLMClient, profiler *llm.Profiler, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("🩺 Health checker started.")

	runCheck := func() {
		checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		start := time.Now()
		_, err := client.Generate(checkCtx, []llm.Message{{Role: llm.RoleUser, Content: "Reply with OK."}}, &llm.GenerationConfig{MaxTokens: 5})
		if err != nil {
			profiler.RecordFailure(ctx, name)
		} else {
			profiler.RecordSuccess(ctx, name, time.Since(start))
		}
		log.Printf("🩺 Health check for %s: Healthy = %v", name, err == nil)
	}

	runCheck()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCheck()
		}
	}
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server, stopBackground context.CancelFunc) {
	go func() {
		log.Printf("👂 Gateway is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	stopBackground()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server shutdown failed:", err)
	}

	log.Println("👋 Server exited gracefully.")
}

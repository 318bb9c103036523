// Package main implements the Folio API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/time/rate"

	"github.com/FolioAI/folio-mvp/engine/chat"
	"github.com/FolioAI/folio-mvp/engine/domain"
	"github.com/FolioAI/folio-mvp/engine/records"
	"github.com/FolioAI/folio-mvp/engine/retrieval"
	"github.com/FolioAI/folio-mvp/engine/semantic"
	"github.com/FolioAI/folio-mvp/engine/synth"
	"github.com/FolioAI/folio-mvp/pkg/cache"
	"github.com/FolioAI/folio-mvp/pkg/llm"
	"github.com/FolioAI/folio-mvp/pkg/metrics"
	"github.com/FolioAI/folio-mvp/pkg/mid"
	"github.com/FolioAI/folio-mvp/pkg/ollama"
	"github.com/FolioAI/folio-mvp/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	CORSOrigin string

	OllamaURL  string
	EmbedModel string
	EmbedDims  int

	Generator   string // "ollama" or "gemini"
	ChatModel   string
	GeminiKey   string
	GeminiModel string

	Neo4jURL   string
	Neo4jUser  string
	Neo4jPass  string
	QdrantURL  string
	Collection string
	NATSURL    string

	GateEnabled bool
	GateOpen    int
	GateClose   int
	GateTZ      string
	GateBypass  string

	QuotaLimit  int
	QuotaWindow time.Duration
	CacheSize   int
	CacheTTL    time.Duration
	RateRPS     float64
	RateBurst   int

	SynthEnabled bool
}

func loadConfig() Config {
	return Config{
		Port:       envOr("PORT", "8080"),
		CORSOrigin: envOr("CORS_ORIGIN", "*"),

		OllamaURL:  envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel: envOr("EMBED_MODEL", "nomic-embed-text"),
		EmbedDims:  envInt("EMBED_DIMS", 768),

		Generator:   envOr("GENERATOR", "ollama"),
		ChatModel:   envOr("CHAT_MODEL", "llama3.1:8b"),
		GeminiKey:   envOr("GEMINI_API_KEY", ""),
		GeminiModel: envOr("GEMINI_MODEL", "gemini-1.5-flash"),

		Neo4jURL:   envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:  envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:  envOr("NEO4J_PASS", "password"),
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		Collection: envOr("QDRANT_COLLECTION", "folio"),
		NATSURL:    envOr("NATS_URL", ""),

		GateEnabled: envBool("GATE_ENABLED", false),
		GateOpen:    envInt("GATE_OPEN_HOUR", 8),
		GateClose:   envInt("GATE_CLOSE_HOUR", 22),
		GateTZ:      envOr("GATE_TZ", "Local"),
		GateBypass:  envOr("GATE_BYPASS_TOKEN", ""),

		QuotaLimit:  envInt("SYNTH_QUOTA", 200),
		QuotaWindow: envDur("SYNTH_QUOTA_WINDOW", 24*time.Hour),
		CacheSize:   envInt("CACHE_SIZE", 256),
		CacheTTL:    envDur("CACHE_TTL", 5*time.Minute),
		RateRPS:     envFloat("RATE_RPS", 5),
		RateBurst:   envInt("RATE_BURST", 10),

		SynthEnabled: envBool("SYNTH_ENABLED", true),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Neo4j ---
	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer neo4jDriver.Close(ctx)
	recordStore := records.New(neo4jDriver)

	// --- Connect to Qdrant ---
	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	// --- Connect to NATS (optional) ---
	var sink chat.Sink
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("folio-api"))
		if err != nil {
			logger.Warn("nats unavailable, analytics disabled", "err", err)
		} else {
			defer nc.Drain()
			sink = chat.NewNATSSink(nc)
		}
	}

	// --- Embedding and generation clients ---
	embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel, cfg.EmbedDims)

	gen, err := buildGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	// --- Preprocessing ---
	loc := time.Local
	if cfg.GateTZ != "Local" {
		if l, err := time.LoadLocation(cfg.GateTZ); err == nil {
			loc = l
		} else {
			logger.Warn("bad gate timezone, using local", "tz", cfg.GateTZ)
		}
	}
	gate := domain.NewAccessGate(cfg.GateEnabled, cfg.GateOpen, cfg.GateClose, loc, cfg.GateBypass)

	// Scope detection needs the known employer and project names; an
	// empty graph just disables narrowing.
	names, err := recordStore.ListEmployers(ctx)
	if err != nil {
		logger.Warn("employer list unavailable, scope detection disabled", "err", err)
	}
	pre := domain.NewPreprocessor(nil, gate, domain.NewScopeDetector(names))

	// --- Pipeline ---
	orch := retrieval.New(embedder, vectorStore, recordStore, retrieval.DefaultOptions(), logger)

	quota := resilience.NewQuota(cfg.QuotaLimit, cfg.QuotaWindow)
	synthOpts := synth.DefaultOptions()
	synthOpts.Enabled = cfg.SynthEnabled
	narrator := synth.New(gen, quota, names, synthOpts, logger)

	respCache := cache.NewTTL[*chat.Response](cfg.CacheSize, cfg.CacheTTL)
	svc := chat.NewService(pre, orch, narrator, respCache, sink, chat.DefaultServiceOptions(), logger)

	// --- Metrics ---
	reg := metrics.New()

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("POST /api/chat", handleChat(svc, reg, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.OTel("folio-api"),
		mid.CORS(cfg.CORSOrigin),
		mid.RateLimit(rate.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst)),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "generator", cfg.Generator)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// buildGenerator picks the narrative backend. Both run behind a circuit
// breaker so a flapping model degrades responses instead of stalling
// them.
func buildGenerator(ctx context.Context, cfg Config) (llm.Generator, error) {
	var gen llm.Generator
	switch cfg.Generator {
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, errors.New("GEMINI_API_KEY required for gemini generator")
		}
		g, err := llm.NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		gen = g
	case "ollama":
		gen = llm.NewOllamaClient(cfg.OllamaURL, cfg.ChatModel)
	default:
		return nil, fmt.Errorf("unknown generator %q", cfg.Generator)
	}
	return llm.WithBreaker(gen, resilience.NewBreaker(resilience.DefaultBreakerOpts)), nil
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ChatRequest is the JSON body for POST /api/chat.
type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

func handleChat(svc *chat.Service, reg *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	latency := reg.Histogram("folio_chat_duration_seconds", "Chat request latency.", nil)
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer latency.Since(start)

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			reg.Counter("folio_chat_total", "Chat requests by outcome.", "outcome", "bad_request").Inc()
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		resp, err := svc.Answer(r.Context(), req.Question, req.SessionID)
		if err != nil {
			logger.Error("chat pipeline failed", "err", err)
			reg.Counter("folio_chat_total", "Chat requests by outcome.", "outcome", "error").Inc()
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}

		reg.Counter("folio_chat_total", "Chat requests by outcome.", "outcome", outcomeLabel(resp)).Inc()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusFor(resp))
		json.NewEncoder(w).Encode(resp)
	}
}

// statusFor maps domain outcomes to HTTP statuses. Prohibited topics,
// quota refusals, and empty matches are valid answers and stay 200.
func statusFor(resp *chat.Response) int {
	if resp.Rejection == nil {
		return http.StatusOK
	}
	switch resp.Rejection.Kind {
	case domain.RejectInvalid:
		return http.StatusBadRequest
	case domain.RejectTimeGated:
		return http.StatusForbidden
	default:
		return http.StatusOK
	}
}

func outcomeLabel(resp *chat.Response) string {
	if resp.Rejection != nil {
		return string(resp.Rejection.Kind)
	}
	if resp.Cached {
		return "cached"
	}
	return "match_" + resp.MatchType
}

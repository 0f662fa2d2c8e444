// Command server starts the AI Interview Coach HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/ai/groq"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/ai/tokencount"
	httpserver "github.com/fairyhunter13/ai-interview-coach/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/repo/postgres"
	tikaext "github.com/fairyhunter13/ai-interview-coach/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/ai-interview-coach/internal/app"
	"github.com/fairyhunter13/ai-interview-coach/internal/config"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/service/ratelimiter"
	"github.com/fairyhunter13/ai-interview-coach/internal/usecase"
)

// modelClient is what a provider has to offer: chat plus audio.
type modelClient interface {
	domain.AIClient
	domain.AudioClient
}

func newModelClient(cfg config.Config) (modelClient, error) {
	switch cfg.AIProvider {
	case "stub":
		return stub.New(), nil
	case "groq", "":
		if cfg.GroqAPIKey == "" {
			if cfg.IsProd() {
				return nil, errors.New("GROQ_API_KEY is required in prod")
			}
			slog.Warn("GROQ_API_KEY not set, using the offline stub provider")
			return stub.New(), nil
		}
		return groq.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	if cfg.IsProd() && !cfg.AuthEnabled() {
		slog.Error("JWT_SECRET is required in prod")
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Infra: DB pool
	if cfg.RunMigrations {
		if err := postgres.Migrate(ctx, cfg.DBURL); err != nil {
			slog.Error("db migrate failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(pool)
	interviewRepo := postgres.NewInterviewRepo(pool)
	chatRepo := postgres.NewChatRepo(pool)
	questionRepo := postgres.NewQuestionRepo(pool)
	resumeRepo := postgres.NewResumeRepo(pool)
	quizRepo := postgres.NewQuizRepo(pool)

	if cfg.IsDev() && cfg.SeedUsersFile != "" {
		n, err := seedUsersFromYAML(ctx, userRepo, cfg.SeedUsersFile)
		if err != nil {
			slog.Warn("user seeding failed", slog.String("file", cfg.SeedUsersFile), slog.Any("error", err))
		} else {
			slog.Info("seeded users", slog.Int("count", n))
		}
	}

	// Start cleanup service for data retention
	if cfg.DataRetentionDays > 0 {
		cleanupSvc := postgres.NewCleanupService(pool, cfg.DataRetentionDays)
		go cleanupSvc.RunPeriodic(ctx, cfg.CleanupInterval)
		slog.Info("cleanup service started", slog.Int("retention_days", cfg.DataRetentionDays), slog.Duration("interval", cfg.CleanupInterval))
	}

	// Redis backs the per-user LLM limiter.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", slog.Any("error", err))
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	var limiter domain.RateLimiter
	if cfg.LLMUserRatePerMin > 0 {
		limiter = ratelimiter.NewUserLimiter(rdb, cfg.LLMUserRatePerMin)
		slog.Info("per-user LLM limiter enabled", slog.Int("per_minute", cfg.LLMUserRatePerMin))
	}

	models, err := newModelClient(cfg)
	if err != nil {
		slog.Error("AI client init failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("AI client initialized", slog.String("provider", cfg.AIProvider), slog.String("chat_model", cfg.ChatModel))

	catalog, err := config.LoadCatalog(cfg.SubjectsFile)
	if err != nil {
		slog.Error("subject catalog load failed", slog.Any("error", err))
		os.Exit(1)
	}

	// External text extractor (Apache Tika)
	ext := tikaext.New(cfg.TikaURL)

	history := usecase.HistoryPolicy{
		Turns:       cfg.PromptHistoryTurns,
		TokenBudget: cfg.PromptHistoryTokenBudget,
		Model:       cfg.ChatModel,
		Counter:     tokencount.DefaultCounter,
	}
	docs := usecase.NewDocumentReader(ext, cfg.MaxUploadMB<<20)

	// Usecases
	services := httpserver.Services{
		Interviews: usecase.NewInterviewService(interviewRepo, models, limiter, history),
		Assistant:  usecase.NewAssistantService(chatRepo, models, limiter, catalog, history),
		Questions:  usecase.NewQuestionService(questionRepo, models),
		Quiz:       usecase.NewQuizService(questionRepo, quizRepo, userRepo),
		Resumes:    usecase.NewResumeService(resumeRepo, userRepo, models, limiter, docs),
		Audio:      usecase.NewAudioService(models, limiter, cfg.MaxAudioMB<<20, cfg.TTSVoice),
		Documents:  docs,
	}

	dbCheck, redisCheck, tikaCheck := app.BuildReadinessChecks(pool, rdb, ext)

	// HTTP server
	srv := httpserver.NewServer(cfg, services, dbCheck, redisCheck, tikaCheck)
	auth := httpserver.NewAuthenticator(cfg.JWTSecret, cfg.JWTCookieName, userRepo)
	handler := app.BuildRouter(cfg, srv, auth)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port), slog.String("env", cfg.AppEnv))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", slog.Any("error", err))
	}
}

// Command dailyq generates today's quiz questions once and exits. It is
// meant to run from cron.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/ai/groq"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interview-coach/internal/config"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/usecase"
)

func main() {
	subjectsFlag := flag.String("subjects", "", "comma-separated subjects; defaults to DAILY_SUBJECTS")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	slog.SetDefault(observability.SetupLogger(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var model domain.AIClient = stub.New()
	if cfg.AIProvider != "stub" && cfg.GroqAPIKey != "" {
		model = groq.New(cfg)
	}

	svc := usecase.NewQuestionService(postgres.NewQuestionRepo(pool), model)
	res, err := svc.Generate(ctx, subjectList(*subjectsFlag, cfg.DailySubjects))
	if err != nil {
		slog.Error("daily question generation failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("daily questions generated",
		slog.String("date", res.Date),
		slog.Int("generated", res.Generated),
		slog.Int("inserted", res.Inserted),
	)
}

func subjectList(flagValue string, fallback []string) []string {
	if strings.TrimSpace(flagValue) == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(flagValue, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

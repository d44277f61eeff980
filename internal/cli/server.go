package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quiz-match-service/internal/app"
	"quiz-match-service/internal/config"
	"quiz-match-service/internal/domain"
	"quiz-match-service/internal/infra/memory"
	pgloader "quiz-match-service/internal/infra/postgres"
	redisfeedback "quiz-match-service/internal/infra/redis"
	transport "quiz-match-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the match server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 0)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.CorpusLoader = memory.NewStaticCorpusLoader(sampleCorpus())
	if pool != nil {
		loader = pgloader.NewCorpusLoader(pool)
	}

	corpusTTL := config.TTLDuration(cfg.Corpus.TTL, 10*time.Minute)
	corpusRepo := memory.NewCorpusRepository(loader, corpusTTL)

	var feedback app.FeedbackStore
	if redisClient != nil {
		feedback = redisfeedback.NewFeedbackStore(redisClient, redisTTL)
	} else {
		feedback = memory.NewFeedbackStore()
	}

	service := app.NewMatchService(corpusRepo, feedback, cfg.MatcherConfig())
	handler := transport.NewHandler(service)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/match", handler.ServeMatch)
	mux.HandleFunc("/api/feedback", handler.ServeFeedback)
	mux.HandleFunc("/api/stats", handler.ServeStats)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting match service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleCorpus provides a minimal demo corpus; production deployments load
// entries from Postgres instead.
func sampleCorpus() []domain.CorpusEntry {
	return []domain.CorpusEntry{
		{
			ID:                   "entry-1",
			QuestionText:         "What is 2 + 2?",
			AnswerOptions:        []string{"3", "4", "5", "6"},
			CorrectAnswerIndices: []int{1},
			CourseName:           "Arithmetic Basics",
			CapturedAt:           time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:                   "entry-2",
			QuestionText:         "Which measure of central tendency is most affected by extreme values?",
			AnswerOptions:        []string{"Mean", "Median", "Mode", "Range"},
			CorrectAnswerIndices: []int{0},
			CourseName:           "Statistics 101",
			CapturedAt:           time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC),
		},
	}
}

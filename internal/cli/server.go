package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/config"
	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/infra/memory"
	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/infra/opentdb"
	pgstore "github.com/Tohidkhan6332/tohid-quiz-bot/internal/infra/postgres"
	redisinfra "github.com/Tohidkhan6332/tohid-quiz-bot/internal/infra/redis"
	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/quiz"
	transport "github.com/Tohidkhan6332/tohid-quiz-bot/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the bot server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz bot server",
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

	var pool *pgxpool.Pool
	var bunDB *bun.DB
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
		defer bunDB.Close()
	}

	samples := memory.NewSampleProvider()

	var source quiz.QuestionProvider
	switch cfg.Trivia.Source {
	case "samples":
		source = samples
	case "bank":
		if pool == nil {
			log.Printf("question bank requested without postgres, using samples")
			source = samples
		} else {
			source = pgstore.NewQuestionBank(pool)
		}
	default:
		source = opentdb.NewClient(cfg.Trivia.APIURL)
	}

	triviaTTL := config.TTLDuration(cfg.Trivia.TTL, 10*time.Minute)
	var cached quiz.QuestionProvider
	if redisClient != nil {
		cached = redisinfra.NewQuestionCache(redisClient, source, triviaTTL)
	} else {
		cached = memory.NewQuestionCache(source, triviaTTL)
	}
	provider := memory.NewFallbackProvider(cached, samples)

	var store quiz.Store
	if bunDB != nil {
		store = pgstore.NewStore(bunDB)
	} else {
		store = memory.NewStore()
	}

	timing := quiz.Timing{
		QuestionTimeout: config.TTLDuration(cfg.Quiz.QuestionTimeout, quiz.DefaultQuestionTimeout),
		SettleDelay:     config.TTLDuration(cfg.Quiz.SettleDelay, quiz.DefaultSettleDelay),
		ChallengeExpiry: config.TTLDuration(cfg.Quiz.ChallengeExpiry, quiz.DefaultChallengeExpiry),
	}

	hub := transport.NewHub()
	sessions := quiz.NewSessionEngine(quiz.SessionEngineConfig{
		Registry: memory.NewSessionRegistry(),
		Provider: provider,
		Store:    store,
		Notifier: hub,
		Timing:   timing,
		Admins:   cfg.Quiz.Admins,
	})
	challenges := quiz.NewChallengeEngine(quiz.ChallengeEngineConfig{
		Registry: memory.NewChallengeRegistry(),
		Provider: provider,
		Store:    store,
		Notifier: hub,
		Timing:   timing,
	})
	wsHandler := transport.NewWSHandler(sessions, challenges, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz bot on :%s", finalPort)
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

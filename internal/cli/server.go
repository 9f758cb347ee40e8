package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"truth-or-twist/internal/app"
	"truth-or-twist/internal/config"
	"truth-or-twist/internal/infra/kafka"
	"truth-or-twist/internal/infra/memory"
	"truth-or-twist/internal/infra/postgres"
	redisstore "truth-or-twist/internal/infra/redis"
	"truth-or-twist/internal/logging"
	"truth-or-twist/internal/metrics"
	"truth-or-twist/internal/oracle"
	transport "truth-or-twist/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
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
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
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
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.StatementLoader = memory.NewStaticStatementLoader(fallbackStatements())
	if pool != nil {
		loader = postgres.NewStatementLoader(pool)
	}

	week := weekSource(cfg.Bank.Week)
	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var bank app.QuestionBank
	if redisClient != nil {
		bank = redisstore.NewQuestionBank(redisClient, loader, week, bankTTL)
	} else {
		bank = memory.NewQuestionBank(loader, week, bankTTL)
	}

	var (
		rooms       app.RoomRepository
		submissions app.SubmissionRepository
		profiles    app.ProfileRepository
	)
	if redisClient != nil {
		rooms = redisstore.NewRoomStore(redisClient, redisTTL)
		submissions = redisstore.NewSubmissionStore(redisClient, redisTTL)
		profiles = redisstore.NewProfileStore(redisClient)
	} else {
		rooms = memory.NewRoomStore()
		submissions = memory.NewSubmissionStore()
		profiles = memory.NewProfileStore()
	}
	// Postgres is the durable home of profiles when configured.
	if cfg.Postgres.URL != "" {
		db := openBunDB(cfg.Postgres.URL)
		defer db.Close()
		profiles = postgres.NewProfileStore(db)
	}

	oracleTimeout := config.TTLDuration(cfg.Oracle.Timeout, 30*time.Second)
	var judge app.Judge = oracle.Heuristic{}
	if cfg.Oracle.URL != "" {
		judge = oracle.NewHTTPJudge(cfg.Oracle.URL, oracleTimeout)
	} else {
		log.Warn("oracle url not configured, grading explanations with the local heuristic")
	}

	mode, err := app.ParseFinalizationMode(cfg.Game.Finalization)
	if err != nil {
		return err
	}

	m := metrics.New()
	opts := []app.Option{
		app.WithLogger(log),
		app.WithObserver(m),
		app.WithOracleTimeout(oracleTimeout),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		topic := cfg.Kafka.Topic
		if topic == "" {
			topic = "truth-or-twist.events"
		}
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, topic)
		defer publisher.Close()
		opts = append(opts, app.WithEvents(publisher))
	}

	board := app.NewLeaderboard(profiles, mode, log)
	service := app.NewGameService(rooms, submissions, bank, judge, board, opts...)

	accessLog := log.WriterLevel(logrus.InfoLevel)
	defer accessLog.Close()
	handler := handlers.LoggingHandler(accessLog, transport.NewServer(service, m, log).Handler())

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: oracleTimeout + 15*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": finalPort, "finalization": mode, "week": week()}).Info("starting truth-or-twist service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

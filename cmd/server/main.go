// Command server runs the application lifecycle API: the application
// registry, the transition engine, the interview scheduler, and notification
// fan-out. Dependencies degrade gracefully: without DATABASE_URL, REDIS_URL,
// or KAFKA_BROKERS the server runs on in-memory stores, which keeps local
// development dependency-free.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	apphandler "tradematch/internal/application/handler"
	appservice "tradematch/internal/application/service"
	appstore "tradematch/internal/application/store"
	authhandler "tradematch/internal/auth/handler"
	authservice "tradematch/internal/auth/service"
	authstore "tradematch/internal/auth/store"
	httpapi "tradematch/internal/http"
	ivhandler "tradematch/internal/interview/handler"
	ivservice "tradematch/internal/interview/service"
	ivstore "tradematch/internal/interview/store"
	"tradematch/internal/job"
	"tradematch/internal/notification/dispatcher"
	nothandler "tradematch/internal/notification/handler"
	"tradematch/internal/notification/hub"
	"tradematch/internal/notification/ingest"
	notservice "tradematch/internal/notification/service"
	notstore "tradematch/internal/notification/store"
	"tradematch/internal/platform/config"
	"tradematch/internal/platform/httpserver"
	"tradematch/internal/platform/kafka"
	"tradematch/internal/platform/logger"
	"tradematch/internal/platform/metrics"
	"tradematch/internal/platform/postgres"
	"tradematch/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		logger.New().Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var (
		applications  appstore.Store
		interviews    ivstore.Store
		jobs          job.Store
		notifications notstore.Store
		users         authstore.UserStore
		db            *sql.DB
		pool          *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		applications = appstore.NewPostgres(db)
		interviews = ivstore.NewPostgres(db)
		jobs = job.NewPostgres(db)
		notifications = notstore.NewPostgres(pool)
		users = authstore.NewPostgresUserStore(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		applications = appstore.NewInMemory()
		interviews = ivstore.NewInMemory()
		jobs = job.NewInMemoryStore()
		notifications = notstore.NewInMemory()
		users = authstore.NewInMemoryUserStore()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var sessions authstore.SessionStore
	if redisClient != nil {
		defer redisClient.Close()
		sessions = authstore.NewRedisSessionStore(redisClient)
	} else {
		log.Warn("REDIS_URL not set, using in-memory sessions")
		sessions = authstore.NewInMemorySessionStore()
	}

	liveHub := hub.New(m.PushDropped.Inc)

	var (
		relay    dispatcher.Relay
		producer *kafka.Producer
		consumer *kafka.Consumer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(ctx, cfg.Kafka.Brokers, log,
			cfg.Kafka.EventsTopic, cfg.Kafka.PlatformTopic)
		if err != nil {
			return err
		}
		defer producer.Close()
		relay = producer
	} else {
		log.Warn("KAFKA_BROKERS not set, event relay and platform ingest disabled")
	}

	disp := dispatcher.New(notifications, liveHub, relay, cfg.Kafka.EventsTopic, m, log)

	if producer != nil {
		consumer, err = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup,
			[]string{cfg.Kafka.PlatformTopic}, ingest.NewHandler(disp, log), log)
		if err != nil {
			return err
		}
		defer consumer.Close()
	}

	appSvc := appservice.New(applications, jobs, interviews, disp, m, log)
	ivSvc := ivservice.New(interviews, appSvc, jobs, disp, m, log)
	notSvc := notservice.New(notifications, liveHub)
	authSvc := authservice.New(users, sessions, []byte(cfg.JWTSigningKey), cfg.SessionTTL, log)

	checks := map[string]httpapi.HealthChecker{}
	if db != nil {
		checks["postgres"] = dbCheck{db: db}
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	router := httpapi.New(httpapi.Options{
		Logger:  log,
		Metrics: m,
		Handlers: []httpapi.Registrar{
			authhandler.New(authSvc, log),
			apphandler.New(appSvc, authSvc, log),
			ivhandler.New(ivSvc, authSvc, log),
			nothandler.New(notSvc, authSvc, log),
		},
		Checks: checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if producer != nil {
			_ = producer.Flush(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})
	if consumer != nil {
		g.Go(func() error {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

type dbCheck struct {
	db *sql.DB
}

func (c dbCheck) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

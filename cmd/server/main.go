// main wires stores, services and the HTTP surface, and owns the process
// lifecycle. Business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"

	_ "github.com/jackc/pgx/v5/stdlib"

	"caretrust/internal/document/store"
	entitystore "caretrust/internal/entity/store"
	"caretrust/internal/notification/feed"
	notifhandler "caretrust/internal/notification/handler"
	"caretrust/internal/notification/reminder"
	"caretrust/internal/platform/auth"
	"caretrust/internal/platform/config"
	"caretrust/internal/platform/database"
	"caretrust/internal/platform/httpserver"
	"caretrust/internal/platform/logger"
	"caretrust/internal/platform/middleware"
	platformredis "caretrust/internal/platform/redis"
	"caretrust/internal/registry"
	verifhandler "caretrust/internal/verification/handler"
	vmetrics "caretrust/internal/verification/metrics"
	"caretrust/internal/verification/service"
	"caretrust/pkg/platform/audit"
	"caretrust/pkg/platform/audit/outbox"
	"caretrust/pkg/platform/audit/publisher"
	auditmem "caretrust/pkg/platform/audit/store/memory"
	auditpg "caretrust/pkg/platform/audit/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := registry.New()

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		docs     service.DocumentStore
		entities service.EntityStore
		feedDocs feed.DocumentStore
		feedEnts feed.EntityStore
		auditSt  audit.Store
		db       *sql.DB
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		if err := database.Migrate(ctx, db); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		docStore := store.NewPostgres(db)
		entStore := entitystore.NewPostgres(db)
		docs, feedDocs = docStore, docStore
		entities, feedEnts = entStore, entStore
		auditSt = auditpg.New(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		docStore := store.NewInMemory()
		entStore := entitystore.NewInMemory()
		docs, feedDocs = docStore, docStore
		entities, feedEnts = entStore, entStore
		auditSt = auditmem.NewInMemoryStore()
	}

	// Audit pipeline: buffered publisher in front of the store; when Kafka
	// is configured a worker drains the transactional outbox to the topic.
	auditPublisher := publisher.New(auditSt, publisher.WithLogger(log))
	go func() {
		if err := auditPublisher.Run(ctx); err != nil {
			log.Error("audit publisher stopped", "error", err)
		}
	}()

	if len(cfg.KafkaBrokers) > 0 && db != nil {
		kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.KafkaBrokers...))
		if err != nil {
			log.Error("kafka client failed", "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()
		if err := outbox.EnsureTopic(ctx, kafkaClient, cfg.AuditTopic, 3); err != nil {
			log.Error("audit topic creation failed", "topic", cfg.AuditTopic, "error", err)
			os.Exit(1)
		}
		worker := outbox.NewWorker(auditpg.New(db), kafkaClient, cfg.AuditTopic, outbox.WithLogger(log))
		go func() {
			if err := worker.Run(ctx); err != nil {
				log.Error("audit outbox worker stopped", "error", err)
			}
		}()
	}

	// Reminder queue: degrades to a no-op without Redis.
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	reminders := reminder.New(redisClient, reg,
		reminder.WithLogger(log),
		reminder.WithDedupeTTL(config.ReminderDedupeTTL),
	)

	svc := service.New(docs, entities, reg,
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithReminderSink(reminders),
		service.WithMetrics(vmetrics.New()),
	)
	feedBuilder := feed.NewBuilder(feedDocs, feedEnts, reg, feed.WithLogger(log))

	vh := verifhandler.New(svc, log)
	nh := notifhandler.New(feedBuilder, auth.NewValidator(cfg.JWTSigningKey), log)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestID)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, cfg.AdminTokenHash, log))
		vh.Register(r)
		nh.RegisterAdmin(r)
	})
	nh.RegisterOwner(router)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("caretrust listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

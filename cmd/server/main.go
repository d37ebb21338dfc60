package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"bayanihan/internal/audit"
	"bayanihan/internal/barangay"
	"bayanihan/internal/claim"
	"bayanihan/internal/eligibility"
	"bayanihan/internal/family"
	"bayanihan/internal/notify"
	"bayanihan/internal/platform/config"
	"bayanihan/internal/platform/httpserver"
	"bayanihan/internal/platform/logger"
	"bayanihan/internal/platform/metrics"
	"bayanihan/internal/platform/postgres"
	"bayanihan/internal/platform/redis"
	"bayanihan/internal/schedule"
	"bayanihan/internal/user"
	id "bayanihan/pkg/domain"
)

// app bundles the wired services behind one value so transports mount off a
// single dependency. This binary serves the operational surface; the JSON
// API consuming these services is deployed separately.
type app struct {
	barangays *barangay.Service
	users     *user.Service
	families  *family.Service
	schedules *schedule.Service
	claims    *claim.Service

	healthDB    func(context.Context) error
	healthRedis func(context.Context) error
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if a.healthDB != nil {
			if err := a.healthDB(req.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if a.healthRedis != nil {
			if err := a.healthRedis(req.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// main wires the dependency graph and keeps the server lifecycle small.
// Every backing service is optional: without DATABASE_URL the process runs on
// in-memory stores, without REDIS_URL notifications go to the log, without
// KAFKA_BROKERS the audit trail stays local.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}

	// Storage.
	var (
		barangayStore barangay.Store     = barangay.NewInMemoryStore()
		userStore     user.Store         = user.NewInMemoryStore()
		familyStore   family.Store       = family.NewInMemoryStore()
		memberStore   family.MemberStore = family.NewInMemoryMemberStore()
		scheduleStore schedule.Store     = schedule.NewInMemoryStore()
		claimStore    claim.Store        = claim.NewInMemoryStore()
		auditStore    audit.Store        = audit.NewInMemoryStore()
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("pgx pool open failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		barangayStore = barangay.NewPostgres(db)
		userStore = user.NewPostgres(db)
		familyStore = family.NewPostgres(db)
		memberStore = family.NewPostgresMemberStore(db)
		scheduleStore = schedule.NewPostgres(db)
		claimStore = claim.NewPostgres(pool)
		auditStore = audit.NewPostgres(db)
		a.healthDB = db.PingContext
	}

	// Audit pipeline: services emit without blocking, the worker persists
	// and optionally fans out to Kafka.
	var auditOpts []audit.PublisherOption
	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.KafkaBrokers...))
		if err != nil {
			log.Error("kafka client failed", "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()
		if err := audit.EnsureTopic(ctx, kadm.NewClient(kafkaClient), cfg.AuditTopic); err != nil {
			log.Error("kafka topic setup failed", "error", err)
			os.Exit(1)
		}
		auditOpts = append(auditOpts,
			audit.WithSink(audit.NewKafkaSink(kafkaClient, cfg.AuditTopic, log)))
	}
	auditInbox := make(chan audit.Event, 256)
	auditWorker := audit.NewWorker(audit.NewPublisher(auditStore, auditOpts...), auditInbox, log)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()
	auditPub := audit.NewAsyncPublisher(auditInbox, log)

	// Notifications.
	var dispatcher notify.Dispatcher = notify.NewLogDispatcher(log)
	if cfg.RedisURL != "" {
		redisClient, err := redis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis connect failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		dispatcher = notify.NewOutboxDispatcher(redisClient, cfg.SMSOutboxKey, log)
		a.healthRedis = redisClient.Health
	}

	// Services.
	a.barangays = barangay.New(barangayStore,
		barangay.WithLogger(log), barangay.WithAuditPublisher(auditPub))
	a.users = user.New(userStore, a.barangays,
		user.WithLogger(log), user.WithAuditPublisher(auditPub))
	a.families = family.New(familyStore, memberStore,
		family.WithLogger(log), family.WithAuditPublisher(auditPub), family.WithMetrics(m))
	a.claims = claim.New(claimStore, familyStore, memberStore, userStore, scheduleStore,
		eligibility.New(),
		claim.WithLogger(log), claim.WithAuditPublisher(auditPub),
		claim.WithMetrics(m), claim.WithDispatcher(dispatcher))
	broadcaster := notify.NewCancellationBroadcaster(familyStore, userStore,
		func(ctx context.Context, familyID id.FamilyID, scheduleID id.ScheduleID) (bool, error) {
			res, err := a.claims.IsEligible(ctx, familyID, scheduleID)
			if err != nil {
				return false, err
			}
			return res.Eligible, nil
		}, dispatcher, log)
	a.schedules = schedule.New(scheduleStore,
		schedule.WithLogger(log), schedule.WithAuditPublisher(auditPub),
		schedule.WithClaimCounter(a.claims), schedule.WithBroadcaster(broadcaster))

	srv := httpserver.New(cfg.Addr, a.router())
	go func() {
		log.Info("server started", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// main wires the access control engine: stores, matcher, authorizer, door
// actuator, session service, and the HTTP surface. Business logic lives in
// the internal packages; this file only assembles and runs them.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"sentinel/internal/actuator"
	"sentinel/internal/audit"
	gatehandler "sentinel/internal/gate/handler"
	gateservice "sentinel/internal/gate/service"
	gatestore "sentinel/internal/gate/store"
	identityhandler "sentinel/internal/identity/handler"
	"sentinel/internal/identity/matcher"
	identitymodels "sentinel/internal/identity/models"
	identitystore "sentinel/internal/identity/store"
	"sentinel/internal/platform/config"
	"sentinel/internal/platform/database"
	"sentinel/internal/platform/health"
	"sentinel/internal/platform/logger"
	"sentinel/internal/platform/metrics"
	"sentinel/internal/platform/middleware"
	"sentinel/internal/platform/tracing"
	sessionhandler "sentinel/internal/session/handler"
	sessionmodels "sentinel/internal/session/models"
	"sentinel/internal/session/registry"
	sessionservice "sentinel/internal/session/service"
	"sentinel/internal/session/workers/cleanup"
	"sentinel/internal/task/authorizer"
	taskstore "sentinel/internal/task/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing sentinel",
		"addr", cfg.Addr,
		"session_ttl", cfg.SessionTTL,
		"similarity_threshold", cfg.SimilarityThreshold,
	)

	pool, err := database.New(database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var (
		identities identitystore.Store
		tasks      taskstore.Store
		gates      gatestore.Store
		auditSink  audit.Store
	)
	if pool != nil {
		identities = identitystore.NewPostgres(pool.DB())
		tasks = taskstore.NewPostgres(pool.DB())
		gates = gatestore.NewPostgres(pool.DB())
		auditSink = audit.NewPostgresStore(pool.DB())
		log.Info("using postgres stores")
	} else {
		identities = identitystore.NewInMemoryStore()
		tasks = taskstore.NewInMemoryStore()
		gates = gatestore.NewInMemoryStore()
		auditSink = audit.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	m := metrics.New()

	roles, err := identitymodels.NewRoles(cfg.RoleCapabilities)
	if err != nil {
		log.Error("invalid role capability table", "error", err)
		os.Exit(1)
	}

	tracer := tracing.NewOTel()

	identify, err := matcher.New(identities, cfg.SimilarityThreshold,
		matcher.WithLogger(log),
		matcher.WithTracer(tracer),
	)
	if err != nil {
		log.Error("matcher init failed", "error", err)
		os.Exit(1)
	}

	authz, err := authorizer.New(tasks, gates,
		authorizer.WithLogger(log),
		authorizer.WithTracer(tracer),
	)
	if err != nil {
		log.Error("authorizer init failed", "error", err)
		os.Exit(1)
	}

	publisher := audit.NewPublisher(auditSink,
		audit.WithPublisherLogger(log),
		audit.WithDropCounter(m.AuditDropped.Inc),
	)
	defer publisher.Close()

	doors := actuator.New(cfg.ActuatorSecret,
		actuator.WithTimeout(cfg.CommandTimeout),
		actuator.WithLogger(log),
		actuator.WithMetrics(m),
	)

	sessions, err := registry.New(cfg.SessionTTL,
		registry.WithLogger(log),
		registry.WithMetrics(m),
		registry.WithExpiredFunc(func(session *sessionmodels.Session) {
			publisher.Emit(context.Background(), audit.Event{
				Action:    audit.ActionSessionExpired,
				SessionID: session.ID,
			})
		}),
	)
	if err != nil {
		log.Error("session registry init failed", "error", err)
		os.Exit(1)
	}

	svc, err := sessionservice.New(sessions, identify, authz, doors, roles,
		sessionservice.WithLogger(log),
		sessionservice.WithMetrics(m),
		sessionservice.WithTracer(tracer),
		sessionservice.WithAuditEmitter(publisher),
		sessionservice.WithGateSource(gates),
		sessionservice.WithActuatorAddr(cfg.ActuatorURL),
		sessionservice.WithUnlockDuration(cfg.UnlockDuration),
	)
	if err != nil {
		log.Error("session service init failed", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	gateSvc, err := gateservice.New(gates, gateservice.WithLogger(log))
	if err != nil {
		log.Error("gate service init failed", "error", err)
		os.Exit(1)
	}

	sweeper, err := cleanup.New(sessions,
		cleanup.WithCleanupInterval(cfg.CleanupInterval),
		cleanup.WithCleanupLogger(log),
	)
	if err != nil {
		log.Error("cleanup worker init failed", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New()
	healthHandler.RegisterCheck("database", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	})

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Device)
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)

	sessionhandler.New(svc, log).Register(router)
	identityhandler.New(identities, identify, roles, cfg.EmbeddingDim, log).Register(router)
	gatehandler.New(gateSvc, log).Register(router)
	healthHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := sweeper.Start(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

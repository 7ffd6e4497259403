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

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	accounthandler "sgea/internal/account/handler"
	accountservice "sgea/internal/account/service"
	accountstore "sgea/internal/account/store"
	"sgea/internal/audit"
	audithandler "sgea/internal/audit/handler"
	auditpg "sgea/internal/audit/store/postgres"
	certhandler "sgea/internal/certificate/handler"
	certservice "sgea/internal/certificate/service"
	certstore "sgea/internal/certificate/store"
	eventhandler "sgea/internal/event/handler"
	eventservice "sgea/internal/event/service"
	eventstore "sgea/internal/event/store"
	"sgea/internal/jwtauth"
	"sgea/internal/notify"
	"sgea/internal/platform/config"
	"sgea/internal/platform/httpserver"
	"sgea/internal/platform/logger"
	"sgea/internal/platform/metrics"
	platformredis "sgea/internal/platform/redis"
	"sgea/internal/ratelimit"
	reghandler "sgea/internal/registration/handler"
	regservice "sgea/internal/registration/service"
	regstore "sgea/internal/registration/store"
	"sgea/pkg/platform/middleware/auth"
	"sgea/pkg/platform/middleware/metadata"
	"sgea/pkg/platform/middleware/observe"
	"sgea/pkg/platform/middleware/recovery"
	"sgea/pkg/platform/middleware/request"
	"sgea/pkg/platform/middleware/requesttime"
	"sgea/pkg/platform/tx"
)

const notifyQueueSize = 256

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Error("database unreachable", "error", err.Error())
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}

	var limiter *ratelimit.Limiter
	if redisClient != nil {
		defer redisClient.Close()
		limiter = ratelimit.New(redisClient.Client, log)
	}

	m := metrics.New()
	runner := tx.NewSQLRunner(db)
	tokens := jwtauth.NewJWTService(cfg.JWTSigningKey, "sgea", "sgea-api")
	validator := jwtValidatorAdapter{tokens}

	accounts := accountstore.NewPostgres(db)
	events := eventstore.NewPostgres(db)
	registrations := regstore.NewPostgres(db)
	certificates := certstore.NewPostgres(db)

	recorder := audit.NewRecorder(auditpg.New(db), log)

	outbox := make(chan notify.Message, notifyQueueSize)
	notifier := notify.NewService(accounts, outbox, log)

	accountSvc := accountservice.New(accounts, tokens, cfg.TokenTTL, log,
		accountservice.WithAuditor(recorder),
		accountservice.WithMetrics(m),
	)
	certSvc := certservice.New(certificates, registrations, events, log,
		certservice.WithAuditor(recorder),
		certservice.WithNotifier(notifier),
		certservice.WithMetrics(m),
	)
	regSvc := regservice.New(registrations, events, certificates, certSvc, runner, log,
		regservice.WithAuditor(recorder),
		regservice.WithNotifier(notifier),
		regservice.WithMetrics(m),
	)
	eventSvc := eventservice.New(events, registrations, certificates, runner, log,
		eventservice.WithAuditor(recorder),
		eventservice.WithProfessorScoping(cfg.ProfessorScoping),
	)

	router := chi.NewRouter()
	router.Use(recovery.Middleware(log))
	router.Use(request.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(metadata.ClientMetadata)
	router.Use(observe.Middleware(log, m))

	accounthandler.New(accountSvc, validator, limiter, log).Register(router)
	eventhandler.New(eventSvc, validator, limiter, log).Register(router)
	reghandler.New(regSvc, certSvc, validator, limiter, log).Register(router)
	certhandler.New(certSvc, validator, limiter, log).Register(router)
	audithandler.New(recorder, validator, log).Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting sgea", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.SMTP.Host != "" {
		worker := notify.NewWorker(notify.NewSMTPSender(cfg.SMTP), outbox, log)
		group.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		log.Info("smtp not configured, notifications disabled")
	}

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

// jwtValidatorAdapter bridges the token service to the middleware contract.
type jwtValidatorAdapter struct {
	tokens *jwtauth.JWTService
}

func (a jwtValidatorAdapter) ValidateToken(tokenString string) (*auth.Claims, error) {
	claims, err := a.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

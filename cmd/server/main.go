// Command server runs the checker shop API: order initiation and payment
// verification against Paystack, OTP-gated checker retrieval via Hubtel, and
// the JWT-guarded back office.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/config"
	"github.com/youngpres/checker-backend/internal/gateway/hubtel"
	"github.com/youngpres/checker-backend/internal/gateway/paystack"
	httpapi "github.com/youngpres/checker-backend/internal/http"
	"github.com/youngpres/checker-backend/internal/observability"
	"github.com/youngpres/checker-backend/internal/repo"
	"github.com/youngpres/checker-backend/internal/services"
	"github.com/youngpres/checker-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is a local development convenience; production uses real env vars.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		shctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shctx); err != nil {
			log.Error().Err(err).Msg("otel shutdown failed")
		}
	}()

	// Storage
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = repo.OpenPostgres(cfg.DatabaseURL)
	} else {
		db, err = repo.OpenSQLite(cfg.DBPath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// Gateways
	payments := paystack.New(cfg.Paystack.BaseURL, cfg.Paystack.Secret, cfg.GatewayTimeout)
	messaging := hubtel.New(
		cfg.Hubtel.ClientID, cfg.Hubtel.ClientSecret, cfg.Hubtel.SenderID,
		cfg.Hubtel.SMSURL, cfg.Hubtel.OTPURL, cfg.Hubtel.CountryCode,
		cfg.GatewayTimeout,
	)

	// Services
	orderSvc := services.NewOrderService(db, payments, messaging, cfg.UnitPrice, cfg.Paystack.CallbackURL)
	retrievalSvc := services.NewRetrievalService(db, messaging, cfg.OTPTTL)
	authSvc := services.NewAuthService(db, cfg.JWT.Secret, cfg.JWT.TTL)
	adminSvc := services.NewAdminService(db)

	retrievalSvc.StartCleanup(cfg.SessionCleanupInterval)
	defer retrievalSvc.Stop()

	// HTTP
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, httpapi.Services{
		Orders:    orderSvc,
		Retrieval: retrievalSvc,
		Auth:      authSvc,
		Admin:     adminSvc,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// Command server runs the MindCare chat API.
//
// @title       MindCare Chat API
// @version     1.0
// @description Quota-gated supportive chat for the MindCare mental-health app.
// @BasePath    /api/v1
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
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-mindcare-backend/internal/config"
	"github.com/tbourn/go-mindcare-backend/internal/history"
	httpapi "github.com/tbourn/go-mindcare-backend/internal/http"
	"github.com/tbourn/go-mindcare-backend/internal/llm"
	"github.com/tbourn/go-mindcare-backend/internal/observability"
	"github.com/tbourn/go-mindcare-backend/internal/repo"
	"github.com/tbourn/go-mindcare-backend/internal/services"
	"github.com/tbourn/go-mindcare-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const purgeInterval = 15 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg := config.MustLoad()
	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName, nil)
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded")
	}

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion, observability.ChatAttributes(cfg)...)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if sysutil.IsTruthy(os.Getenv("MIGRATE_ONLY")) {
		log.Info().Msg("migrations applied, exiting")
		return
	}

	provider, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.LLM.Provider).Msg("completion provider setup failed")
	}

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.History.Driver).Msg("history store setup failed")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, Provider: provider, History: store}, cfg)

	go purgeIdempotency(ctx, services.NewIdempotencyService(db, cfg.IdempotencyTTL))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	log.Info().
		Str("addr", srv.Addr).
		Str("version", appVersion).
		Str("provider", provider.Name()).
		Str("history", cfg.History.Driver).
		Msg("server starting")

	if err := runServer(ctx, srv); err != nil {
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	closeAll(shutdownCtx, db, store, shutdownOTel)
	log.Info().Msg("server stopped")
}

// runServer serves until ctx is cancelled, then shuts srv down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// purgeIdempotency removes expired idempotency records until ctx ends.
func purgeIdempotency(ctx context.Context, svc *services.IdempotencyService) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := svc.Purge(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("idempotency purge")
			}
		}
	}
}

func closeAll(ctx context.Context, db *gorm.DB, store history.Store, shutdownOTel func(context.Context) error) {
	if err := store.Close(); err != nil {
		log.Warn().Err(err).Msg("history store close failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Warn().Err(err).Msg("database close failed")
		}
	}
	if err := shutdownOTel(ctx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown failed")
	}
}

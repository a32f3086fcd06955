package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cajaledger/internal/config"
	"cajaledger/internal/infra"
	"cajaledger/internal/repository"
	"cajaledger/internal/router"
	"cajaledger/internal/service"
	"cajaledger/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty console in development, JSON elsewhere.
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Async notification workers: arqueos over the tolerance enqueue an
	// alert that is delivered off the request path.
	mailer := infra.NewMailer(cfg)
	handlers := &worker.Handlers{
		Alertas: worker.NewAlertaWorker(mailer, cfg.AlertaEmailPara),
	}
	worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)
	worker.StartRetryCron(ctx, rdb)

	// Auto-close sweep: sessions still open past the daily cutoff move to
	// pendiente_arqueo until a human reconciles them.
	sesionSvc := service.NewSesionService(
		repository.NewCajaRepository(db),
		repository.NewSesionRepository(db),
		repository.NewMovimientoRepository(db),
		repository.NewVentaRepository(db),
	)
	autocierre, err := worker.NewAutoCierre(sesionSvc, rdb, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid autocierre configuration")
	}
	autocierre.Start(ctx)

	r := router.New(cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cajaledger listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockcocina/internal/config"
	"stockcocina/internal/infra"
	"stockcocina/internal/router"
	"stockcocina/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Redis carries the summary queue, the event channel and the pending
	// mirror. The stock ledger works without it.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without summaries and events")
			rdb = nil
		}
	}

	deps := router.NewDeps(cfg, db, rdb)
	loadCtx, loadCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := deps.Ledger.Cargar(loadCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to load stock table")
	}
	loadCancel()
	log.Info().Int("productos", len(deps.Ledger.Productos())).Msg("stock table loaded")

	if rdb != nil {
		resumenCfg := worker.ResumenWorkerConfig{
			Pedidos:        deps.Pedidos,
			Mailer:         infra.NewMailer(cfg),
			Destino:        cfg.ProveedorEmail,
			NombreCocina:   cfg.NombreCocina,
			Location:       cfg.Location(),
			PDFStoragePath: cfg.PDFStoragePath,
		}
		archivo, err := infra.NewArchivoPDF(ctx, cfg)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("PDF archive disabled")
		case archivo != nil:
			resumenCfg.Archivo = archivo
			log.Info().Str("bucket", cfg.AWSS3Bucket).Msg("PDF archive enabled")
		}
		workerHandlers := worker.WorkerHandlers{
			Resumen: worker.NewResumenWorker(resumenCfg),
		}
		worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)
	}
	if cfg.RecargaSeg > 0 {
		worker.StartRecargaCron(ctx, worker.RecargaCronConfig{
			Ledger:    deps.Ledger,
			CB:        deps.Breaker,
			Intervalo: time.Duration(cfg.RecargaSeg) * time.Second,
		})
	}

	r := router.New(cfg, db, rdb, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("stock cocina backend listening on :%d", cfg.Port)
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
		log.Error().Err(err).Msg("forced shutdown")
	}
	// Pending debounced stock edits are written before exit.
	deps.Ledger.Flush(shutdownCtx)
	cancel()
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

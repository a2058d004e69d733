package worker

// recarga_cron.go
// Background goroutine that periodically reloads the stock table from the
// backend so edits made by other clients show up. Uses the Circuit Breaker to
// stay quiet while the backend is down.

import (
	"context"
	"time"

	"stockcocina/internal/infra"

	"github.com/rs/zerolog/log"
)

const defaultRecargaInterval = 60 * time.Second

// Recargable is implemented by *service.Ledger.
type Recargable interface {
	Cargar(ctx context.Context) error
}

// RecargaCronConfig holds all dependencies for the reload goroutine.
type RecargaCronConfig struct {
	Ledger    Recargable
	CB        *infra.CircuitBreaker
	Intervalo time.Duration
}

// StartRecargaCron launches the reload loop. It respects ctx for shutdown.
func StartRecargaCron(ctx context.Context, cfg RecargaCronConfig) {
	if cfg.Intervalo <= 0 {
		cfg.Intervalo = defaultRecargaInterval
	}
	go func() {
		ticker := time.NewTicker(cfg.Intervalo)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Intervalo).Msg("recarga_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("recarga_cron: shutting down")
				return
			case <-ticker.C:
				recargar(ctx, cfg)
			}
		}
	}()
}

func recargar(ctx context.Context, cfg RecargaCronConfig) {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("recarga_cron: circuit breaker is open, skipping tick")
		return
	}
	tctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := cfg.Ledger.Cargar(tctx); err != nil {
		log.Warn().Err(err).Msg("recarga_cron: reload failed")
	}
}

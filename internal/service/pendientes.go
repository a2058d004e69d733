package service

import (
	"context"
	"fmt"
	"sync"

	"stockcocina/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ClavePendientes is the Redis hash mirroring the outstanding map.
const ClavePendientes = "stock:pendientes"

// Pendientes keeps the outstanding requested quantity per product name, for
// display only. Nothing in the stock logic reads it.
type Pendientes struct {
	repo repository.PedidoRepository
	rdb  *redis.Client

	mu   sync.RWMutex
	mapa map[string]decimal.Decimal
}

// NewPendientes builds the aggregator. rdb may be nil.
func NewPendientes(repo repository.PedidoRepository, rdb *redis.Client) *Pendientes {
	return &Pendientes{repo: repo, rdb: rdb, mapa: make(map[string]decimal.Decimal)}
}

// Recalcular rebuilds the map from every order line not yet received.
func (p *Pendientes) Recalcular(ctx context.Context) error {
	detalles, err := p.repo.ListDetallesPendientes(ctx)
	if err != nil {
		return fmt.Errorf("listar detalles pendientes: %w", err)
	}
	mapa := make(map[string]decimal.Decimal)
	for _, d := range detalles {
		mapa[d.ProductoNombre] = mapa[d.ProductoNombre].Add(d.CantidadSolicitada.Monto)
	}

	p.mu.Lock()
	p.mapa = mapa
	p.mu.Unlock()

	p.espejar(ctx, mapa)
	return nil
}

// Mapa returns a copy of the current map.
func (p *Pendientes) Mapa() map[string]decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(p.mapa))
	for k, v := range p.mapa {
		out[k] = v
	}
	return out
}

// De returns the outstanding quantity for one product name.
func (p *Pendientes) De(nombre string) decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mapa[nombre]
}

func (p *Pendientes) espejar(ctx context.Context, mapa map[string]decimal.Decimal) {
	if p.rdb == nil {
		return
	}
	pipe := p.rdb.TxPipeline()
	pipe.Del(ctx, ClavePendientes)
	if len(mapa) > 0 {
		campos := make(map[string]interface{}, len(mapa))
		for k, v := range mapa {
			campos[k] = v.String()
		}
		pipe.HSet(ctx, ClavePendientes, campos)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Msg("pendientes: redis mirror failed")
	}
}

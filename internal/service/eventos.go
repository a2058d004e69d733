package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// EventoStockVaciado is informational: a subtraction took a positive stock to zero.
	EventoStockVaciado = "stock_vaciado"
	// EventoErrorGuardado reports a failed deferred write; the ledger reloads after it.
	EventoErrorGuardado = "error_guardado"

	CanalEventos = "stock:eventos"
)

// Evento is a user-facing notice produced by the stock ledger.
type Evento struct {
	Tipo       string    `json:"tipo"`
	ProductoID uuid.UUID `json:"producto_id"`
	Nombre     string    `json:"nombre"`
	Mensaje    string    `json:"mensaje"`
	Fecha      time.Time `json:"fecha"`
}

// Notificador delivers events to whoever displays them.
type Notificador interface {
	Notificar(ctx context.Context, e Evento)
}

// LogNotificador only writes events to the structured log.
type LogNotificador struct{}

func (LogNotificador) Notificar(_ context.Context, e Evento) {
	ev := log.Info()
	if e.Tipo == EventoErrorGuardado {
		ev = log.Error()
	}
	ev.Str("tipo", e.Tipo).
		Str("producto_id", e.ProductoID.String()).
		Str("nombre", e.Nombre).
		Msg(e.Mensaje)
}

// RedisNotificador publishes events on CanalEventos so any connected client
// can show them. Publishing is best effort.
type RedisNotificador struct {
	rdb *redis.Client
}

func NewRedisNotificador(rdb *redis.Client) *RedisNotificador {
	return &RedisNotificador{rdb: rdb}
}

func (n *RedisNotificador) Notificar(ctx context.Context, e Evento) {
	LogNotificador{}.Notificar(ctx, e)
	if n.rdb == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := n.rdb.Publish(ctx, CanalEventos, data).Err(); err != nil {
		log.Warn().Err(err).Str("tipo", e.Tipo).Msg("eventos: publish failed")
	}
}
